package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erazemk/dormswap/internal/catalog"
	"github.com/erazemk/dormswap/internal/imaging"
	"github.com/erazemk/dormswap/internal/model"
	"github.com/erazemk/dormswap/internal/validate"
)

// errUsage reports bad flags or arguments; the flag set has already
// printed its usage.
var errUsage = errors.New("usage")

func newFlagSet(name, help string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { fmt.Fprint(os.Stderr, help) }
	return fs
}

// parse parses args and checks the number of positional arguments. A
// negative nargs means "at least -nargs".
func parse(fs *flag.FlagSet, args []string, nargs int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	n := fs.NArg()
	if (nargs >= 0 && n != nargs) || (nargs < 0 && n < -nargs) {
		if nargs == 0 {
			fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		} else {
			fmt.Fprintln(os.Stderr, "wrong number of arguments")
		}
		fs.Usage()
		return errUsage
	}
	return nil
}

// describe turns validation errors into one line per field.
func describe(err error) error {
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	keys := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("invalid input:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, verr.Fields[k])
	}
	return errors.New(b.String())
}

func signedIn(c *cli) (*app, model.User, error) {
	a, err := c.app()
	if err != nil {
		return nil, model.User{}, err
	}
	u, ok := a.sessions.Load(c.ctx)
	if !ok {
		return nil, model.User{}, fmt.Errorf("%w: run \"dormswap login\" first", model.ErrNoSession)
	}
	return a, u, nil
}

func cmdLogin(c *cli, args []string) error {
	fs := newFlagSet("login", `Usage: dormswap login -t <id-token>

Flags:
  -t, -id-token <token>   ID token returned by Google Sign-In
`)
	var token string
	fs.StringVar(&token, "id-token", "", "")
	fs.StringVar(&token, "t", "", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	a, err := c.app()
	if err != nil {
		return err
	}
	u, err := a.auth.LoginWithGoogle(c.ctx, token)
	if err != nil {
		return describe(err)
	}

	fmt.Printf("Signed in as %s <%s>\n", u.Name, u.Email)
	return nil
}

func cmdLogout(c *cli, args []string) error {
	fs := newFlagSet("logout", "Usage: dormswap logout\n")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	a, err := c.app()
	if err != nil {
		return err
	}
	a.auth.Logout(c.ctx)
	fmt.Println("Signed out.")
	return nil
}

func cmdWhoami(c *cli, args []string) error {
	fs := newFlagSet("whoami", "Usage: dormswap whoami\n")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	a, err := c.app()
	if err != nil {
		return err
	}
	sess, ok := a.sessions.Current(c.ctx)
	if !ok {
		fmt.Println("Not signed in.")
		return nil
	}

	u := sess.User
	fmt.Printf("%s <%s>\n", u.Name, u.Email)
	fmt.Printf("  id:       %s\n", u.ID)
	if u.DormBuilding != "" {
		fmt.Printf("  dorm:     %s %s\n", u.DormBuilding, u.DormRoom)
	}
	if u.Phone != "" {
		fmt.Printf("  phone:    %s\n", u.Phone)
	}
	fmt.Printf("  expires:  %s\n", sess.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func cmdItems(c *cli, args []string) error {
	fs := newFlagSet("items", `Usage: dormswap items [flags]

Flags:
  -c, -category <slug>    textbooks, electronics, sports, furniture, appliances,
                          uniforms-outfits, stationery, others
  -type <sell|rent>       listing type
  -condition <name>       "100% New", "Like New", "Good" or "Acceptable"
  -min <price>            minimum price
  -max <price>            maximum price
  -q <text>               search titles and descriptions
`)
	var category, listing, condition, minPrice, maxPrice, query string
	fs.StringVar(&category, "category", "", "")
	fs.StringVar(&category, "c", "", "")
	fs.StringVar(&listing, "type", "", "")
	fs.StringVar(&condition, "condition", "", "")
	fs.StringVar(&minPrice, "min", "", "")
	fs.StringVar(&maxPrice, "max", "", "")
	fs.StringVar(&query, "q", "", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	f := model.ItemFilters{
		Category:    model.Category(category),
		ListingType: model.ListingType(listing),
		Search:      strings.TrimSpace(query),
	}
	if category != "" && !f.Category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	if listing != "" && !f.ListingType.Valid() {
		return fmt.Errorf("unknown listing type %q", listing)
	}
	if condition != "" {
		cond, ok := model.ParseCondition(condition)
		if !ok {
			return fmt.Errorf("unknown condition %q", condition)
		}
		f.Condition = cond
	}
	if minPrice != "" {
		n := validate.ParsePrice(minPrice)
		f.MinPrice = &n
	}
	if maxPrice != "" {
		n := validate.ParsePrice(maxPrice)
		f.MaxPrice = &n
	}

	a, _, err := signedIn(c)
	if err != nil {
		return err
	}
	items, err := a.catalog.List(c.ctx, f)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println("No items match your filters.")
		return nil
	}
	printItems(items)
	return nil
}

func printItems(items []model.Item) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tCATEGORY\tCONDITION\tTYPE\tSTATUS")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Title, priceText(it), it.Category.Label(), it.Condition, it.ListingType, it.Status)
	}
	tw.Flush()
}

func priceText(it model.Item) string {
	p := validate.FormatPrice(it.Price) + " ₫"
	if it.ListingType == model.ListingRent && it.RentUnit != "" {
		p += "/" + string(it.RentUnit)
	}
	return p
}

func cmdItem(c *cli, args []string) error {
	fs := newFlagSet("item", "Usage: dormswap item <id>\n")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	a, _, err := signedIn(c)
	if err != nil {
		return err
	}
	it, ok := a.catalog.GetByID(c.ctx, fs.Arg(0))
	if !ok {
		return fmt.Errorf("item %s: %w", fs.Arg(0), model.ErrNotFound)
	}

	fmt.Println(it.Title)
	fmt.Printf("  price:      %s\n", priceText(it))
	if it.RentalDeposit != nil {
		fmt.Printf("  deposit:    %s ₫\n", validate.FormatPrice(*it.RentalDeposit))
	}
	fmt.Printf("  category:   %s\n", it.Category.Label())
	fmt.Printf("  condition:  %s (%s)\n", it.Condition, model.ConditionDescription(it.Condition))
	fmt.Printf("  status:     %s\n", it.Status)
	if it.MeetupPreference != "" {
		fmt.Printf("  meet-up:    %s\n", it.MeetupPreference)
	}
	for _, img := range it.Images {
		fmt.Printf("  image:      %s\n", img)
	}
	if it.Description != "" {
		fmt.Printf("\n%s\n", it.Description)
	}
	return nil
}

func cmdPost(c *cli, args []string) error {
	fs := newFlagSet("post", `Usage: dormswap post [flags] <photo>...

Flags:
  -title <text>           5 to 100 characters
  -desc <text>            20 to 2000 characters
  -price <price>          e.g. 150.000
  -category <slug>        see "dormswap items -h"
  -condition <name>       default "Good"
  -type <sell|rent>       default sell
  -deposit <price>        rental deposit (rent only)
  -unit <day|week|month>  rental period (rent only, default day)
  -building <name>        preferred meet-up building, e.g. A3

Between one and five JPEG, PNG or WebP photos are required.
`)
	var title, desc, price, category, condition, listing, deposit, unit, building string
	fs.StringVar(&title, "title", "", "")
	fs.StringVar(&desc, "desc", "", "")
	fs.StringVar(&price, "price", "", "")
	fs.StringVar(&category, "category", "", "")
	fs.StringVar(&condition, "condition", string(model.DefaultCondition), "")
	fs.StringVar(&listing, "type", string(model.ListingSell), "")
	fs.StringVar(&deposit, "deposit", "", "")
	fs.StringVar(&unit, "unit", string(model.RentDay), "")
	fs.StringVar(&building, "building", "", "")
	if err := parse(fs, args, -1); err != nil {
		return err
	}

	cond, _ := model.ParseCondition(condition)
	draft := catalog.Draft{
		Title:         title,
		Description:   desc,
		Price:         validate.ParsePrice(price),
		Category:      model.Category(category),
		Condition:     cond,
		ListingType:   model.ListingType(listing),
		RentalDeposit: validate.ParsePrice(deposit),
		RentUnit:      model.RentUnit(unit),
		DormBuilding:  building,
	}

	photos := make([]catalog.Photo, 0, fs.NArg())
	for _, path := range fs.Args() {
		up, err := readPhoto(path)
		if err != nil {
			return err
		}
		photos = append(photos, up)
	}

	a, _, err := signedIn(c)
	if err != nil {
		return err
	}
	it, err := a.catalog.Create(c.ctx, draft, photos)
	if err != nil {
		return describe(err)
	}

	if it.ID == "" {
		fmt.Println("Listing posted. It will appear under \"dormswap listings\" shortly.")
		return nil
	}
	fmt.Printf("Listing posted: %s (%s)\n", it.Title, it.ID)
	return nil
}

func readPhoto(path string) (imaging.Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return imaging.Upload{}, fmt.Errorf("opening photo: %w", err)
	}
	defer f.Close()

	up, err := imaging.Prepare(filepath.Base(path), f)
	if err != nil {
		return imaging.Upload{}, fmt.Errorf("%s: %w", path, err)
	}
	return up, nil
}

func cmdStatus(c *cli, args []string) error {
	fs := newFlagSet("status", "Usage: dormswap status <id> <sold|rented|removed>\n")
	if err := parse(fs, args, 2); err != nil {
		return err
	}
	id, status := fs.Arg(0), model.ItemStatus(fs.Arg(1))
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", fs.Arg(1))
	}

	a, u, err := signedIn(c)
	if err != nil {
		return err
	}
	it, ok := a.catalog.GetByID(c.ctx, id)
	if !ok {
		return fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	if it.SellerID != "" && it.SellerID != u.ID {
		return fmt.Errorf("item %s belongs to another seller", id)
	}
	a.catalog.Remember(it)

	updated, err := a.catalog.Update(c.ctx, id, catalog.Patch{Status: &status}, nil)
	if err != nil {
		return describe(err)
	}
	fmt.Printf("%s is now %s.\n", updated.Title, updated.Status)
	return nil
}

func cmdListings(c *cli, args []string) error {
	fs := newFlagSet("listings", `Usage: dormswap listings [-pending]

Flags:
  -pending                show sold, rented and removed listings instead
`)
	var pending bool
	fs.BoolVar(&pending, "pending", false, "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	a, u, err := signedIn(c)
	if err != nil {
		return err
	}
	ps := a.profile(c.ctx)
	defer ps.Close()

	if _, err := ps.LoadListings(c.ctx, u.ID); err != nil {
		return err
	}
	active, other := ps.Partition()
	items := active
	if pending {
		items = other
	}

	if len(items) == 0 {
		fmt.Println("No listings here yet.")
		return nil
	}
	printItems(items)
	return nil
}

func cmdDelete(c *cli, args []string) error {
	fs := newFlagSet("delete", "Usage: dormswap delete <id>\n")
	if err := parse(fs, args, 1); err != nil {
		return err
	}

	a, _, err := signedIn(c)
	if err != nil {
		return err
	}
	if err := a.catalog.Delete(c.ctx, fs.Arg(0)); err != nil {
		return err
	}
	fmt.Printf("Deleted %s.\n", fs.Arg(0))
	return nil
}

func cmdProfile(c *cli, args []string) error {
	fs := newFlagSet("profile", `Usage: dormswap profile [flags]

Without flags the profile is shown. Any flag updates that field.

Flags:
  -name <text>            full name
  -phone <number>         Vietnamese phone number, e.g. 0912 345 678
  -building <name>        dormitory building, e.g. A3
  -room <number>          room number, e.g. 202A
`)
	var name, phone, building, room string
	fs.StringVar(&name, "name", "", "")
	fs.StringVar(&phone, "phone", "", "")
	fs.StringVar(&building, "building", "", "")
	fs.StringVar(&room, "room", "", "")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	a, u, err := signedIn(c)
	if err != nil {
		return err
	}
	ps := a.profile(c.ctx)
	defer ps.Close()

	if fs.NFlag() == 0 {
		p, err := ps.LoadProfile(c.ctx, u.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", p.Name, p.Email)
		fmt.Printf("  building: %s\n", p.DormBuilding)
		fmt.Printf("  room:     %s\n", p.DormRoom)
		fmt.Printf("  phone:    %s\n", p.Phone)
		return nil
	}

	in := validate.ProfileInput{
		Name:         u.Name,
		Phone:        u.Phone,
		DormBuilding: u.DormBuilding,
		RoomNumber:   u.DormRoom,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = name
		case "phone":
			in.Phone = phone
		case "building":
			in.DormBuilding = building
		case "room":
			in.RoomNumber = room
		}
	})

	updated, err := ps.UpdateProfile(c.ctx, in)
	if err != nil {
		return describe(err)
	}
	fmt.Printf("Profile updated: %s, %s %s\n", updated.Name, updated.DormBuilding, updated.DormRoom)
	return nil
}
