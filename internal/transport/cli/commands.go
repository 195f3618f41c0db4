package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/joshdurbin/shortenurl/internal/domain"
	"github.com/joshdurbin/shortenurl/internal/repository"
	"github.com/joshdurbin/shortenurl/internal/service"
	"github.com/joshdurbin/shortenurl/internal/shortener"
)

// Commands provides the alias subcommands on top of the alias service
type Commands struct {
	service service.AliasService
	domain  string
	out     io.Writer
}

// NewCommands creates a new Commands instance printing to out
func NewCommands(svc service.AliasService, displayDomain string, out io.Writer) *Commands {
	return &Commands{
		service: svc,
		domain:  displayDomain,
		out:     out,
	}
}

// Get retrieves and displays the destination of an alias
func (c *Commands) Get(ctx context.Context, alias string) error {
	record, err := c.service.GetAlias(ctx, alias)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Fprintln(c.out, "Alias does not exist.")
			return nil
		}
		return err
	}

	fmt.Fprintf(c.out, "Long URL: %s\n", record.URL)
	fmt.Fprintf(c.out, "Short URL: %s\n", record.ShortURL(c.domain))
	if createdAt, err := shortener.Timestamp(record.Alias); err == nil {
		fmt.Fprintf(c.out, "Created At: %s\n", createdAt.Format(time.RFC3339))
	}

	return nil
}

// List displays stored aliases in a table
func (c *Commands) List(ctx context.Context, opts repository.ListOptions) error {
	records, err := c.service.ListAliases(ctx, opts)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(c.out, "No records found, please create one using command: shortenurl alias create <your url>.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"S.No.", "Short URL", "Long URL"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	serial := 0
	if opts.Limit > 0 {
		serial = max(opts.Offset, 0)
	}
	for _, record := range records {
		serial++
		table.Append([]string{strconv.Itoa(serial), record.ShortURL(c.domain), record.URL})
	}
	table.Render()

	return nil
}

// Create creates an alias for url and displays the short URL
func (c *Commands) Create(ctx context.Context, url string) error {
	record, err := c.service.CreateAlias(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to create alias, try again: %w", err)
	}

	fmt.Fprintln(c.out, "Alias created successfully!!")
	fmt.Fprintf(c.out, "Short URL: %s\n", record.ShortURL(c.domain))

	return nil
}

// Remove deletes an alias
func (c *Commands) Remove(ctx context.Context, alias string) error {
	_, err := c.service.DeleteAlias(ctx, alias)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Fprintf(c.out, "Alias '%s' cannot be found.\n", alias)
			return nil
		}
		return err
	}

	fmt.Fprintln(c.out, "Record was removed.")
	return nil
}

// Flush deletes every alias
func (c *Commands) Flush(ctx context.Context) error {
	removed, err := c.service.FlushAliases(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Fprintln(c.out, "No records to remove.")
			return nil
		}
		return err
	}

	fmt.Fprintf(c.out, "All records were removed (%d).\n", len(removed))
	return nil
}
