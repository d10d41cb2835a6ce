package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	catalogdomain "github.com/dwikikusuma/shoping-session/internal/catalog/domain"
	identitydomain "github.com/dwikikusuma/shoping-session/internal/identity/domain"
	"github.com/dwikikusuma/shoping-session/internal/shop"
)

type flags struct {
	backend string
	store   string
	verbose bool
}

func (f flags) logLevel(def string) string {
	if f.verbose {
		return "debug"
	}
	if def == "info" {
		// Keep routine info lines off the terminal unless asked for.
		return "warn"
	}
	return def
}

type openFunc func(ctx context.Context, f flags) (*shop.Shop, error)

type app struct {
	open  openFunc
	flags flags
	shop  *shop.Shop
}

// execute runs one command line. The Shop opened for it is always closed,
// which also waits for cart mirrors still in flight.
func execute(ctx context.Context, open openFunc, args []string, stdout, stderr io.Writer) error {
	a := &app{open: open}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.shop != nil {
		if cerr := a.shop.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Browse the catalog, manage the cart and the signed-in session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context(), a.flags)
			if err != nil {
				return err
			}
			a.shop = s
			return s.Start(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.backend, "backend", "", "backend base URL (overrides SHOP_BACKEND_URL)")
	pf.StringVar(&a.flags.store, "store", "", "local store driver: sqlite, redis or memory")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		a.productsCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.statusCmd(),
		a.cartCmd(),
		a.profileCmd(),
	)
	return root
}

func (a *app) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, p := range a.shop.Products() {
				fmt.Fprintf(out, "%s\t%s\t%s\t[%s]\n", p.ID, p.Name, formatPrice(p.Price), strings.Join(p.Sizes, ","))
			}
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Start a session with a bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.shop.Login(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printUser(cmd)
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.shop.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the resolved user and where it came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printUser(cmd)
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session state and cart size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "state:\t%s\n", a.shop.State())
			fmt.Fprintf(out, "items:\t%d\n", a.shop.CartCount())
			fmt.Fprintf(out, "total:\t%s\n", formatPrice(a.shop.CartTotal()))
			return nil
		},
	}
}

func (a *app) cartCmd() *cobra.Command {
	cart := &cobra.Command{
		Use:   "cart",
		Short: "Inspect or change the cart",
	}

	cart.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print cart lines with subtotal, delivery fee and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := a.shop.Quote(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if q.Empty() {
				fmt.Fprintln(out, "cart is empty")
				return nil
			}
			for _, l := range q.Lines {
				fmt.Fprintf(out, "%s\t%s\t%s\tx%d\t%s\n", l.ProductID, l.Name, l.Size, l.Quantity, l.LineTotal)
			}
			fmt.Fprintf(out, "subtotal:\t%s\n", q.Subtotal)
			fmt.Fprintf(out, "delivery:\t%s\n", q.DeliveryFee)
			fmt.Fprintf(out, "total:\t%s\n", q.Total)
			return nil
		},
	})

	cart.AddCommand(&cobra.Command{
		Use:   "add <product-id> <size>",
		Short: "Add one unit of a product in a size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.shop.AddToCart(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "items:\t%d\n", a.shop.CartCount())
			return nil
		},
	})

	cart.AddCommand(&cobra.Command{
		Use:   "set <product-id> <size> <quantity>",
		Short: "Set the quantity of a product in a size",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("quantity %q: %w", args[2], err)
			}
			if err := a.shop.UpdateQuantity(cmd.Context(), args[0], args[1], qty); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "items:\t%d\n", a.shop.CartCount())
			return nil
		},
	})

	return cart
}

func (a *app) profileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in user's profile",
	}

	var name string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change the display name, offline if the backend is unreachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			res, err := a.shop.UpdateProfile(cmd.Context(), identitydomain.ProfilePatch{Name: name})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Offline {
				fmt.Fprintln(out, "saved locally, backend unreachable")
			}
			writeUser(out, res.User)
			return nil
		},
	}
	update.Flags().StringVar(&name, "name", "", "new display name")
	profile.AddCommand(update)

	return profile
}

func (a *app) printUser(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	u, ok := a.shop.User()
	if !ok {
		fmt.Fprintln(out, "not logged in")
		return nil
	}
	writeUser(out, u)
	return nil
}

func writeUser(out io.Writer, u identitydomain.User) {
	fmt.Fprintf(out, "id:\t%s\n", u.ID)
	fmt.Fprintf(out, "name:\t%s\n", u.Name)
	fmt.Fprintf(out, "email:\t%s\n", u.Email)
	fmt.Fprintf(out, "source:\t%s\n", u.Source)
	if !u.JoinDate.IsZero() {
		fmt.Fprintf(out, "joined:\t%s\n", u.JoinDate.Format("2006-01-02"))
	}
}

func formatPrice(m catalogdomain.Money) string {
	return m.String()
}
