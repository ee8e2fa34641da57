package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"contactbook/contact"
	"contactbook/pkg/config"
	"contactbook/store"
)

var csvColumns = []string{"firstName", "lastName", "mobileNumber", "emailAddress", "dateOfBirth"}

func main() {
	var (
		csvPath string
		limit   int
	)

	flag.StringVar(&csvPath, "csv", "", "Path to a contacts CSV (default: the development contacts)")
	flag.IntVar(&limit, "limit", 0, "Limit number of rows to import (0 = all)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, csvPath, limit); err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}
}

// run seeds the configured store and closes it before returning.
func run(ctx context.Context, cfg *config.Config, csvPath string, limit int) (err error) {
	repo, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.DB.Driver, err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = fmt.Errorf("close storage: %w", cerr)
		}
	}()

	contacts := contact.DevelopmentContacts()
	if csvPath != "" {
		contacts, err = readContactsFile(csvPath, limit)
		if err != nil {
			return fmt.Errorf("read %s: %w", csvPath, err)
		}
	}

	count, err := contact.Seed(ctx, repo, contacts)
	if err != nil {
		return fmt.Errorf("seed after %d inserted: %w", count, err)
	}

	slog.Info("import completed", "rows", len(contacts), "inserted", count)
	return nil
}

func readContactsFile(path string, limit int) ([]contact.Contact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readContacts(file, limit)
}

// readContacts parses rows under a header naming the contact columns in any
// order. emailAddress and dateOfBirth may be missing or empty.
func readContacts(r io.Reader, limit int) ([]contact.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	idx, err := parseContactCSVHeader(reader)
	if err != nil {
		return nil, err
	}

	var contacts []contact.Contact
	for line := 2; limit <= 0 || len(contacts) < limit; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return contacts, err
		}

		c, err := parseContactRecord(record, idx)
		if err != nil {
			return contacts, fmt.Errorf("line %d: %w", line, err)
		}
		contacts = append(contacts, c)
	}

	return contacts, nil
}

func parseContactCSVHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(csvColumns))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range csvColumns[:3] {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing required column %q in csv header", required)
		}
	}

	return idx, nil
}

func parseContactRecord(record []string, idx map[string]int) (contact.Contact, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	c := contact.Contact{
		FirstName:    field("firstName"),
		LastName:     field("lastName"),
		MobileNumber: field("mobileNumber"),
		EmailAddress: field("emailAddress"),
	}
	if dob := field("dateOfBirth"); dob != "" {
		d, err := contact.ParseDate(dob)
		if err != nil {
			return contact.Contact{}, err
		}
		c.DateOfBirth = d
	}
	return c, nil
}
