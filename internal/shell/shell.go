// Package shell is the interactive console menu over a directory.Service.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"address-book/internal/directory"
	"address-book/internal/models"
	"address-book/internal/validation"
	errs "address-book/pkg/errors"
	"address-book/pkg/logging"
)

const (
	choiceAdd = iota + 1
	choiceSearchName
	choiceSearchNumber
	choiceDeleteName
	choiceDeleteNumber
	choiceShowAll
	choiceExit
)

var menuItems = []string{
	"Add new contact",
	"Search by name",
	"Search by number",
	"Delete contact by name",
	"Delete contact by number",
	"Show all contacts",
	"Exit",
}

// errInputClosed ends the session when the input stream is exhausted.
var errInputClosed = errors.New("input closed")

// Shell reads commands line by line from in and writes results to out.
type Shell struct {
	svc *directory.Service
	in  *bufio.Scanner
	out io.Writer
	log *logging.ComponentLogger

	// prompts are printed only for interactive sessions
	prompts bool
}

// New builds a shell. Prompts are shown when prompts is true; use
// IsTerminal(os.Stdin) to decide for a real console.
func New(svc *directory.Service, in io.Reader, out io.Writer, prompts bool, logger *logging.Logger) *Shell {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Shell{
		svc:     svc,
		in:      bufio.NewScanner(in),
		out:     out,
		log:     logger.WithComponent("shell"),
		prompts: prompts,
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Run loops over the menu until Exit, end of input or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	if s.prompts {
		s.banner("ADDRESS BOOK", "=", 50)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		choice, err := s.menuChoice()
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case choiceAdd:
			err = s.addContact(ctx)
		case choiceSearchName:
			err = s.searchByName(ctx)
		case choiceSearchNumber:
			err = s.searchByNumber(ctx)
		case choiceDeleteName:
			err = s.deleteByName(ctx)
		case choiceDeleteNumber:
			err = s.deleteByNumber(ctx)
		case choiceShowAll:
			s.showAll()
		case choiceExit:
			s.println("Goodbye!")
			return nil
		}
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) menuChoice() (int, error) {
	if s.prompts {
		s.println("")
		for i, item := range menuItems {
			s.printf("%d. %s\n", i+1, item)
		}
	}
	s.prompt("Enter your choice (1-7): ")
	for {
		line, err := s.readLine()
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(line)
		if convErr == nil && n >= choiceAdd && n <= choiceExit {
			return n, nil
		}
		s.println("Invalid choice. Please enter a number between 1-7.")
		s.prompt("Enter your choice (1-7): ")
	}
}

func (s *Shell) addContact(ctx context.Context) error {
	s.section("ADD NEW CONTACT")

	name, err := s.askValid("Enter contact name: ", validation.ValidateName)
	if err != nil {
		return err
	}

	s.prompt("Enter contact type (Family/Personal/Work/Other): ")
	rawType, err := s.readLine()
	if err != nil {
		return err
	}
	category := validation.StandardizeCategory(rawType)
	if !strings.EqualFold(strings.TrimSpace(rawType), string(category)) {
		s.println("Invalid type. Using 'Other' as default.")
	}

	phone, err := s.askValid("Enter phone number: ", validation.ValidatePhone)
	if err != nil {
		return err
	}

	merge, err := s.askYesNo("Do you want to add another number for this contact? (yes/no): ")
	if err != nil {
		return err
	}

	res, err := s.svc.Add(ctx, directory.AddRequest{
		Name:       name,
		Category:   string(category),
		Phone:      phone,
		AllowMerge: merge,
	})
	if err != nil {
		s.println("Failed to add contact: " + errs.MessageOf(err))
		return nil
	}
	switch {
	case res.Unchanged:
		s.println("Contact " + res.Name + " already has this number.")
	case res.Merged:
		s.println("Number added to existing contact " + res.Name + ".")
	default:
		s.println("Contact added successfully!")
	}
	return nil
}

func (s *Shell) searchByName(ctx context.Context) error {
	s.section("SEARCH BY NAME")
	name, err := s.ask("Enter name to search: ")
	if err != nil {
		return err
	}
	fuzzy, err := s.askYesNo("Use similar name search? (yes/no): ")
	if err != nil {
		return err
	}
	s.results("name", name, s.svc.SearchByName(ctx, name, fuzzy))
	return nil
}

func (s *Shell) searchByNumber(ctx context.Context) error {
	s.section("SEARCH BY NUMBER")
	number, err := s.askValid("Enter phone number to search: ", validation.ValidatePhone)
	if err != nil {
		return err
	}
	s.results("number", number, s.svc.SearchByNumber(ctx, number))
	return nil
}

func (s *Shell) deleteByName(ctx context.Context) error {
	s.section("DELETE BY NAME")
	name, err := s.ask("Enter exact name to delete: ")
	if err != nil {
		return err
	}
	n, err := s.svc.DeleteByName(ctx, name)
	if err != nil {
		s.println(errs.MessageOf(err))
		return nil
	}
	s.printf("Successfully deleted %d contact(s).\n", n)
	return nil
}

func (s *Shell) deleteByNumber(ctx context.Context) error {
	s.section("DELETE BY NUMBER")
	number, err := s.askValid("Enter phone number to delete: ", validation.ValidatePhone)
	if err != nil {
		return err
	}
	if err := s.svc.DeleteByNumber(ctx, number); err != nil {
		s.println(errs.MessageOf(err))
		return nil
	}
	s.println("Number deleted successfully!")
	return nil
}

func (s *Shell) showAll() {
	s.section("ALL CONTACTS")
	all := s.svc.All()
	if len(all) == 0 {
		s.println("No contacts stored yet.")
		return
	}
	s.printf("Total contacts: %d\n", len(all))
	s.list(all)
}

func (s *Shell) results(kind, query string, found []models.Contact) {
	s.printf("Results for %s '%s':\n", kind, query)
	if len(found) == 0 {
		s.println("No contacts found.")
		return
	}
	s.printf("Found %d contact(s):\n", len(found))
	s.list(found)
}

func (s *Shell) list(cs []models.Contact) {
	for i, c := range cs {
		s.printf("%d. %s\n", i+1, c)
	}
}

// ask re-prompts until a non-empty line arrives.
func (s *Shell) ask(label string) (string, error) {
	s.prompt(label)
	for {
		line, err := s.readLine()
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
		s.prompt("Input cannot be empty. " + label)
	}
}

// askValid re-prompts until check accepts the answer.
func (s *Shell) askValid(label string, check func(string) error) (string, error) {
	for {
		line, err := s.ask(label)
		if err != nil {
			return "", err
		}
		if err := check(line); err != nil {
			s.println("  " + errs.MessageOf(err))
			continue
		}
		return line, nil
	}
}

// askYesNo accepts yes, y and نعم (any case); anything else is no.
func (s *Shell) askYesNo(question string) (bool, error) {
	s.prompt(question)
	line, err := s.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "yes", "y", "نعم":
		return true, nil
	}
	return false, nil
}

func (s *Shell) readLine() (string, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			s.log.Error("read input", err)
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) section(title string) {
	if s.prompts {
		s.banner(title, "-", 40)
	}
}

func (s *Shell) banner(title, rule string, width int) {
	line := strings.Repeat(rule, width)
	s.printf("%s\n  %s\n%s\n", line, title, line)
}

func (s *Shell) prompt(label string) {
	if s.prompts {
		fmt.Fprint(s.out, label)
	}
}

func (s *Shell) println(msg string)                 { fmt.Fprintln(s.out, msg) }
func (s *Shell) printf(format string, args ...any) { fmt.Fprintf(s.out, format, args...) }
