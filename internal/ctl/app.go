package ctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kantina/canteen/internal/flagx"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/services"
)

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("usage error")

type Importer interface {
	Import(ctx context.Context, r io.Reader) (*services.ImportResult, error)
}

type AdminManager interface {
	SetupAdmin(ctx context.Context, userName, password string) (*models.User, error)
}

type App struct {
	importer     Importer
	admins       AdminManager
	defaultAdmin string
	out          io.Writer
	openFile     func(name string) (io.ReadCloser, error)
}

func NewApp(importer Importer, admins AdminManager, defaultAdmin string, out io.Writer) *App {
	return &App{
		importer:     importer,
		admins:       admins,
		defaultAdmin: defaultAdmin,
		out:          out,
		openFile:     func(name string) (io.ReadCloser, error) { return os.Open(name) },
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Usage: canteenctl <command> [flags]")
	fmt.Fprintln(a.out, "Commands:")
	fmt.Fprintln(a.out, "  import -f file.csv      import registrations from the legacy CSV sheet")
	fmt.Fprintln(a.out, "  create-admin -n name    create or promote an admin and set its password")
}

// Run dispatches args[0] to the matching command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "import":
		return a.importCSV(ctx, rest)
	case "create-admin":
		return a.createAdmin(ctx, rest)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// parseCommandFlags picks the command's own flags out of a command line that
// also carries configuration flags.
func parseCommandFlags(name string, args []string, define func(fs *flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	define(fs)

	var own []string
	fs.VisitAll(func(f *flag.Flag) { own = append(own, "-"+f.Name) })

	if err := fs.Parse(flagx.FilterArgs(args, own)); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func (a *App) importCSV(ctx context.Context, args []string) error {
	var path string
	if err := parseCommandFlags("import", args, func(fs *flag.FlagSet) {
		fs.StringVar(&path, "f", "", "CSV file to import")
	}); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: import needs -f file.csv", ErrUsage)
	}

	f, err := a.openFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.importer.Import(ctx, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Imported %d entries, %d rows failed\n", res.Imported, res.Failed)
	for _, line := range res.Errors {
		fmt.Fprintln(a.out, "  "+line)
	}
	return nil
}

func (a *App) createAdmin(ctx context.Context, args []string) error {
	name := a.defaultAdmin
	if err := parseCommandFlags("create-admin", args, func(fs *flag.FlagSet) {
		fs.StringVar(&name, "n", a.defaultAdmin, "admin username")
	}); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: create-admin needs -n name", ErrUsage)
	}

	password, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}

	if _, err := a.admins.SetupAdmin(ctx, name, password); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Admin %q is ready\n", name)
	return nil
}
