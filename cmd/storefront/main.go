// Command storefront is a terminal client for the storefront API. It drives
// the same SDK packages an embedding application would: the typed API
// client, the cart manager with its local fallback, and the catalog query
// engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopverse/storefront/internal/apiclient"
	"github.com/shopverse/storefront/internal/domain/cart"
	"github.com/shopverse/storefront/internal/domain/catalog"
	"github.com/shopverse/storefront/internal/engine"
	"github.com/shopverse/storefront/internal/localstore"
	"github.com/shopverse/storefront/pkg/notify"
)

const usage = `usage: storefront [flags] <command> [args]

commands:
  products              list products (see filter flags)
  search <query>        full-text product search
  product <id>          show a single product
  categories            list categories
  featured              list featured products
  cart                  show the cart
  add <product-id> [n]  add a product to the cart
  update <item-id> <n>  change a line's quantity (0 removes)
  remove <item-id>      remove a line
  clear                 empty the cart
  coupon <code>         apply a coupon
  uncoupon              remove the applied coupon
  validate              check the cart against the live catalog
  theme [dark|light]    show or set the theme
`

type cliFlags struct {
	baseURL  string
	verbose  bool
	category string
	brand    string
	minPrice string
	maxPrice string
	sortBy   string
	page     int
	limit    int
	inStock  bool
}

func main() {
	var fl cliFlags
	flag.StringVar(&fl.baseURL, "base-url", "http://localhost:8080/api", "API base URL")
	flag.BoolVar(&fl.verbose, "v", false, "verbose SDK logging")
	flag.StringVar(&fl.category, "category", "", "filter by category")
	flag.StringVar(&fl.brand, "brand", "", "filter by brand")
	flag.StringVar(&fl.minPrice, "min-price", "", "minimum price")
	flag.StringVar(&fl.maxPrice, "max-price", "", "maximum price")
	flag.StringVar(&fl.sortBy, "sort", "", "sort order (price-low, price-high, rating, newest, popularity)")
	flag.IntVar(&fl.page, "page", 1, "result page")
	flag.IntVar(&fl.limit, "limit", catalog.DefaultLimit, "page size")
	flag.BoolVar(&fl.inStock, "in-stock", false, "only in-stock products")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, fl, flag.Args()); err != nil {
		slog.Error("storefront command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, fl cliFlags, args []string) error {
	dir, err := localstore.DefaultDir()
	if err != nil {
		return err
	}
	local, err := localstore.Open(dir)
	if err != nil {
		return err
	}

	lg := zap.NewNop()
	if fl.verbose {
		lg, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL: fl.baseURL,
		Tokens:  localstore.NewTokens(local),
		Logger:  lg,
	})
	if err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "products", "search", "product", "categories", "featured":
		return runCatalog(ctx, client, lg, fl, cmd, rest)
	case "cart", "add", "update", "remove", "clear", "coupon", "uncoupon", "validate":
		mgr := cart.NewManager(client.Cart(), local, notify.NewLog(lg), lg)
		return runCart(ctx, client, mgr, cmd, rest)
	case "theme":
		return runTheme(local, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runCatalog(ctx context.Context, client *apiclient.Client, lg *zap.Logger, fl cliFlags, cmd string, args []string) error {
	eng := engine.New(client.Catalog(), lg)

	switch cmd {
	case "products":
		eng.SetFilters(ctx, filterOptions(fl)...)
	case "search":
		if len(args) == 0 {
			return fmt.Errorf("search requires a query")
		}
		eng.Search(ctx, args[0])
	case "product":
		if len(args) == 0 {
			return fmt.Errorf("product requires an id")
		}
		p, err := client.Catalog().GetByID(ctx, args[0])
		if err != nil {
			return err
		}
		printProduct(*p)
		return nil
	case "categories":
		cats, err := client.Catalog().Categories(ctx)
		if err != nil {
			return err
		}
		for _, c := range cats {
			fmt.Printf("%s\t%s\n", c.ID, c.Name)
		}
		return nil
	case "featured":
		products, err := client.Catalog().Featured(ctx, 8)
		if err != nil {
			return err
		}
		printProducts(products)
		return nil
	}

	st := eng.State()
	if st.Result == nil {
		return fmt.Errorf("no results: is the server running at the given base URL?")
	}
	printProducts(st.Result.Items)
	fmt.Printf("\npage %d/%d, %d products total\n", st.Result.Page, st.Result.TotalPages, st.Result.Total)
	return nil
}

func runCart(ctx context.Context, client *apiclient.Client, mgr *cart.Manager, cmd string, args []string) error {
	mgr.LoadCart(ctx)

	switch cmd {
	case "cart":
	case "add":
		if len(args) == 0 {
			return fmt.Errorf("add requires a product id")
		}
		qty := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			qty = n
		}
		p, err := client.Catalog().GetByID(ctx, args[0])
		if err != nil {
			return err
		}
		mgr.AddItem(ctx, *p, qty, nil)
	case "update":
		if len(args) < 2 {
			return fmt.Errorf("update requires an item id and a quantity")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		mgr.UpdateQuantity(ctx, args[0], n)
	case "remove":
		if len(args) == 0 {
			return fmt.Errorf("remove requires an item id")
		}
		mgr.RemoveItem(ctx, args[0])
	case "clear":
		mgr.ClearCart(ctx)
	case "coupon":
		if len(args) == 0 {
			return fmt.Errorf("coupon requires a code")
		}
		mgr.ApplyCoupon(ctx, args[0])
	case "uncoupon":
		mgr.RemoveCoupon(ctx)
	case "validate":
		rep := mgr.ValidateCart(ctx)
		if rep.Valid {
			fmt.Println("cart is valid")
			return nil
		}
		for _, iss := range rep.Issues {
			fmt.Printf("%s (%s): %s\n", iss.ProductName, iss.ItemID, iss.Issue)
		}
		return nil
	}

	printCart(mgr.State())
	return nil
}

func runTheme(local *localstore.Store, args []string) error {
	if len(args) == 0 {
		th := local.LoadTheme()
		if th.IsDark {
			fmt.Println("dark")
		} else {
			fmt.Println("light")
		}
		return nil
	}

	switch args[0] {
	case "dark":
		return local.SaveTheme(localstore.Theme{IsDark: true})
	case "light":
		return local.SaveTheme(localstore.Theme{IsDark: false})
	default:
		return fmt.Errorf("unknown theme %q", args[0])
	}
}

// filterOptions translates the CLI flags into catalog filter options.
func filterOptions(fl cliFlags) []catalog.FilterOption {
	var opts []catalog.FilterOption
	if fl.category != "" {
		opts = append(opts, catalog.WithCategories(fl.category))
	}
	if fl.brand != "" {
		opts = append(opts, catalog.WithBrands(fl.brand))
	}
	if fl.minPrice != "" && fl.maxPrice != "" {
		minP, minErr := decimal.NewFromString(fl.minPrice)
		maxP, maxErr := decimal.NewFromString(fl.maxPrice)
		if minErr == nil && maxErr == nil {
			opts = append(opts, catalog.WithPriceRange(minP, maxP))
		}
	}
	if fl.sortBy != "" {
		opts = append(opts, catalog.WithSort(catalog.Sort(fl.sortBy)))
	}
	if fl.inStock {
		opts = append(opts, catalog.WithInStock(true))
	}
	opts = append(opts, catalog.WithPage(fl.page), catalog.WithLimit(fl.limit))
	return opts
}

func printProducts(products []catalog.Product) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBRAND\tPRICE\tRATING\tSTOCK")
	for _, p := range products {
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t$%s\t%.1f\t%s\n",
			p.ID, p.Name, p.Brand, p.Price.StringFixed(2), p.Rating, stock)
	}
	_ = w.Flush()
}

func printProduct(p catalog.Product) {
	fmt.Printf("%s\n%s\n\n", p.Name, p.Description)
	fmt.Printf("brand:    %s\n", p.Brand)
	fmt.Printf("category: %s / %s\n", p.Category, p.Subcategory)
	fmt.Printf("price:    $%s\n", p.Price.StringFixed(2))
	if p.OriginalPrice != nil {
		fmt.Printf("was:      $%s\n", p.OriginalPrice.StringFixed(2))
	}
	fmt.Printf("rating:   %.1f (%d reviews)\n", p.Rating, p.ReviewCount)
	fmt.Printf("stock:    %d\n", p.StockQuantity)
	for k, v := range p.Specifications {
		fmt.Printf("  %s: %s\n", k, v)
	}
}

func printCart(st cart.State) {
	if len(st.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRODUCT\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range st.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t$%s\t$%s\n",
			it.ID, it.Product.Name, it.Quantity,
			it.Product.Price.StringFixed(2), it.Subtotal().StringFixed(2))
	}
	_ = w.Flush()

	if st.Summary == nil {
		return
	}
	fmt.Printf("\nsubtotal: $%s\n", st.Summary.Subtotal.StringFixed(2))
	if st.Summary.Discount.GreaterThan(decimal.Zero) {
		fmt.Printf("discount: -$%s\n", st.Summary.Discount.StringFixed(2))
	}
	fmt.Printf("tax:      $%s\n", st.Summary.Tax.StringFixed(2))
	fmt.Printf("shipping: $%s\n", st.Summary.Shipping.StringFixed(2))
	fmt.Printf("total:    $%s\n", st.Summary.Total.StringFixed(2))
	if st.AppliedCoupon != nil {
		fmt.Printf("coupon:   %s\n", st.AppliedCoupon.Code)
	}
}
