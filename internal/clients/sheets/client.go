package sheets

import (
	"context"
	"errors"
	"fmt"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"net/http"
	"os"
	"time"
)

// columnsRange covers every column a row may use.
const columnsRange = "A:Z"

type Client struct {
	service       *sheets.Service
	spreadsheetID string
	rateLimiter   *rate.Limiter
	attempts      int
	retryDelay    time.Duration
}

// NewClient authorizes with a service account key file.
func NewClient(ctx context.Context, credentialsFile string, spreadsheetID string) (*Client, error) {

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read credentials file: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("couldn't create JWT config: %w", err)
	}

	return NewClientWithOptions(ctx, spreadsheetID, option.WithHTTPClient(conf.Client(ctx)))
}

func NewClientWithOptions(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("couldn't create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
		attempts:      3,
		retryDelay:    2 * time.Second,
	}, nil
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

// AppendRow adds a row after the last filled one. Values are stored as is, so phone numbers
// like "+7..." are not turned into formulas. An append is sent once: a server error may come
// after the row was written.
func (c *Client) AppendRow(ctx context.Context, sheet string, row []any) error {

	if err := c.wait(ctx); err != nil {
		return err
	}

	valueRange := &sheets.ValueRange{Values: [][]any{row}}
	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!"+columnsRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// ReadRows returns every filled row of the sheet as strings.
func (c *Client) ReadRows(ctx context.Context, sheet string) ([][]string, error) {

	var resp *sheets.ValueRange
	err := c.withRetries(ctx, func() error {
		var err error
		resp, err = c.service.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!"+columnsRange).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(resp.Values, func(row []any, _ int) []string {
		return lo.Map(row, func(cell any, _ int) string { return fmt.Sprint(cell) })
	}), nil
}

func (c *Client) withRetries(ctx context.Context, call func() error) error {
	var err error

	_, _, _ = lo.AttemptWhileWithDelay(c.attempts, c.retryDelay, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			log.Warnf("sheets api returned server error, retrying: %v", err)
		}
		if err = c.wait(ctx); err != nil {
			return err, false
		}
		err = call()
		return err, isServerError(err)
	})

	return err
}

func (c *Client) wait(ctx context.Context) error {
	if c.rateLimiter == nil {
		return nil
	}
	return c.rateLimiter.Wait(ctx)
}

func isServerError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusInternalServerError
	}
	return false
}
