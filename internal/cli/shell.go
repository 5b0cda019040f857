// Package cli is the interactive front end: one command per line, each run to
// completion before the next is read.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/session"
)

const prompt = "splitledger> "

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	errQuit           = errors.New("quit")
)

// Shell reads commands from in and writes results to out.
type Shell struct {
	auth    *service.AuthService
	dist    *service.DistributionService
	session *session.Session
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
}

// New creates a Shell.
func New(authSvc *service.AuthService, dist *service.DistributionService, sess *session.Session, in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		auth:    authSvc,
		dist:    dist,
		session: sess,
		in:      in,
		out:     out,
		logger:  logger,
	}
}

// Run reads and executes commands until quit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprint(s.out, prompt)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			if err := s.Execute(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
			fmt.Fprint(s.out, prompt)
		}
	}
}

// Execute runs a single command line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]
	s.logger.Debug("Executing command", "command", cmd, "args", len(args))

	switch cmd {
	case "help", "?":
		s.help()
		return nil
	case "quit", "exit":
		return errQuit
	case "register":
		return s.register(ctx, args)
	case "login":
		return s.login(ctx, args)
	case "logout":
		s.auth.Logout()
		s.dist.Reset()
		fmt.Fprintln(s.out, "Logged out.")
		return nil
	case "whoami":
		return s.whoami()
	case "load":
		return s.load(ctx)
	case "distribute":
		return s.distribute(args)
	case "emails":
		return s.emails(args)
	case "edit":
		return s.edit(args)
	case "toggle":
		return s.toggle(args)
	case "total":
		return s.total(args)
	case "balances":
		return s.balances()
	case "show":
		return s.show()
	case "form":
		return s.form()
	case "undo":
		return s.undo()
	case "save":
		if err := s.dist.Save(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Distribution saved.")
		return nil
	case "send":
		if err := s.dist.SendEmail(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Distribution email sent.")
		return nil
	default:
		return fmt.Errorf("%w: %q (try \"help\")", ErrUnknownCommand, cmd)
	}
}

func (s *Shell) help() {
	fmt.Fprint(s.out, `Commands:
  register <username> <password>
  login <username> <password>
  logout
  whoami
  load                                     fetch the saved distribution
  distribute <amount> <friends> <payer> <description>
                                           friends is comma separated; quote values with spaces
  emails <emails>                          comma separated, one per friend
  edit <friend> <payer> <index> <amount> <description>
  toggle <friend> <payer> <index>          mark paid or due
  total <friend> <payer>
  balances                                 net positions and simplified debts
  show
  form
  undo
  save
  send                                     email the distribution to friends
  quit
`)
}

func (s *Shell) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: register <username> <password>", ErrUsage)
	}
	msg, err := s.auth.Register(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, msg)
	return nil
}

func (s *Shell) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: login <username> <password>", ErrUsage)
	}
	user, err := s.auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	s.dist.Reset()
	fmt.Fprintf(s.out, "Logged in as %s.\n", user.Username)
	return s.load(ctx)
}

func (s *Shell) whoami() error {
	state := s.session.State()
	if state != session.Authenticated {
		fmt.Fprintf(s.out, "Not logged in (%s).\n", state)
		return nil
	}
	user := s.session.User()
	id := user.ID
	if id == "" {
		id = "unknown"
	}
	fmt.Fprintf(s.out, "%s (id %s)\n", user.Username, id)
	return nil
}

func (s *Shell) load(ctx context.Context) error {
	applied, err := s.dist.Load(ctx)
	if err != nil {
		return err
	}
	if !applied {
		fmt.Fprintln(s.out, "Saved distribution not loaded.")
		return nil
	}
	fmt.Fprintf(s.out, "Loaded %d entries.\n", s.dist.Ledger().Len())
	return nil
}

func (s *Shell) distribute(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: distribute <amount> <friends> <payer> <description>", ErrUsage)
	}
	entry := models.Entry{
		Amount:      args[0],
		Friends:     args[1],
		Spender:     args[2],
		Description: strings.Join(args[3:], " "),
	}
	if err := s.dist.Distribute(entry); err != nil {
		return err
	}
	return s.show()
}

func (s *Shell) emails(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: emails <emails>", ErrUsage)
	}
	if err := s.dist.SetEmails(strings.Join(args, " ")); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Friend emails: %s\n", s.dist.Form().FriendEmails)
	return nil
}

func (s *Shell) edit(args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("%w: edit <friend> <payer> <index> <amount> <description>", ErrUsage)
	}
	index, err := parseIndex(args[2])
	if err != nil {
		return err
	}
	amount, err := ledger.ParseAmount(args[3])
	if err != nil {
		return err
	}
	req := ledger.EditRequest{Amount: amount, Description: strings.Join(args[4:], " ")}
	if err := s.dist.Edit(args[0], args[1], index, req); err != nil {
		return err
	}
	return s.show()
}

func (s *Shell) toggle(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: toggle <friend> <payer> <index>", ErrUsage)
	}
	index, err := parseIndex(args[2])
	if err != nil {
		return err
	}
	paid, err := s.dist.Toggle(args[0], args[1], index)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Marked %s's entry %d for %s as %s.\n", args[0], index, args[1], status(paid))
	return nil
}

func (s *Shell) total(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: total <friend> <payer>", ErrUsage)
	}
	due, err := s.dist.TotalDue(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s owes %s: %s\n", args[0], args[1], due.StringFixed(2))
	return nil
}

func (s *Shell) balances() error {
	balances, debts, err := s.dist.Balances()
	if err != nil {
		return err
	}
	if len(balances) == 0 {
		fmt.Fprintln(s.out, "Everyone is settled up.")
		return nil
	}
	fmt.Fprintln(s.out, "Balances:")
	for _, b := range balances {
		fmt.Fprintf(s.out, "  %s: %s\n", b.Name, b.NetBalance.StringFixed(2))
	}
	if len(debts) > 0 {
		fmt.Fprintln(s.out, "Settle up:")
		for _, d := range debts {
			fmt.Fprintf(s.out, "  %s pays %s %s\n", d.From, d.To, d.Amount.StringFixed(2))
		}
	}
	return nil
}

func (s *Shell) show() error {
	if err := s.session.Require(); err != nil {
		return err
	}
	return Render(s.out, s.dist.Ledger())
}

func (s *Shell) form() error {
	f := s.dist.Form()
	fmt.Fprintf(s.out, "Amount:        %s\n", f.Amount)
	fmt.Fprintf(s.out, "Friends:       %s\n", f.Friends)
	fmt.Fprintf(s.out, "Friend emails: %s\n", f.FriendEmails)
	fmt.Fprintf(s.out, "Spender:       %s\n", f.Spender)
	fmt.Fprintf(s.out, "Description:   %s\n", f.Description)
	fmt.Fprintf(s.out, "Undo depth:    %d\n", s.dist.HistoryDepth())
	return nil
}

func (s *Shell) undo() error {
	undone, err := s.dist.Undo()
	if err != nil {
		return err
	}
	if !undone {
		fmt.Fprintln(s.out, "Nothing to undo.")
		return nil
	}
	return s.show()
}

// Render writes the ledger grouped by friend then payer, with the unpaid total
// for each payer.
func Render(w io.Writer, l ledger.Ledger) error {
	if l.IsEmpty() {
		_, err := fmt.Fprintln(w, "No distribution data available.")
		return err
	}
	bw := bufio.NewWriter(w)
	for _, friend := range l.Friends() {
		fmt.Fprintf(bw, "%s:\n", friend)
		for _, payer := range l.Payers(friend) {
			fmt.Fprintf(bw, "  %s:\n", payer)
			for i, o := range l.Obligations(friend, payer) {
				fmt.Fprintf(bw, "    [%d] %s paid for %s: %s (%s)\n", i, payer, o.Description, o.Amount.StringFixed(2), status(o.Paid))
			}
			fmt.Fprintf(bw, "    Total amount due by %s: %s\n", payer, l.TotalDue(friend, payer).StringFixed(2))
		}
	}
	return bw.Flush()
}

func status(paid bool) string {
	if paid {
		return "Paid"
	}
	return "Due"
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: index %q must be a non-negative integer", ledger.ErrInvalidInput, s)
	}
	return index, nil
}
