package octopus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/context/ctxhttp"
	"golang.org/x/time/rate"

	"github.com/uhppoted/eo-backup/config"
	"github.com/uhppoted/eo-backup/log"
)

// Client is a minimal EmailOctopus API client. Each call makes exactly one GET request;
// there is no retry.
type Client struct {
	host    string
	api     string
	key     string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

func NewClient(conf config.Octopus, options ...Option) *Client {
	limit := rate.Inf
	if conf.RateLimit > 0 {
		limit = rate.Limit(conf.RateLimit)
	}

	c := Client{
		host:    strings.TrimSuffix(conf.Host, "/"),
		api:     "/" + strings.Trim(conf.API, "/") + "/",
		key:     conf.APIKey,
		http:    &http.Client{Timeout: conf.Timeout},
		limiter: rate.NewLimiter(limit, 1),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// ListAllMailingLists returns the lists on the first page of the lists endpoint. The
// provider paginates lists too but only the first page is retrieved.
func (c *Client) ListAllMailingLists(ctx context.Context) ([]List, error) {
	var reply lists

	if err := c.get(ctx, c.endpoint("lists"), &reply); err != nil {
		return nil, fmt.Errorf("error retrieving mailing lists (%w)", err)
	}

	if reply.Paging.Next != "" {
		log.Warnf("Mailing lists response has more than one page - only the first %v lists will be exported", len(reply.Data))
	}

	return reply.Data, nil
}

func (c *Client) FetchContactsPage(ctx context.Context, list List) (*Page, error) {
	var page Page

	uri := c.endpoint(fmt.Sprintf("lists/%v/contacts", url.PathEscape(list.ID)))
	if err := c.get(ctx, uri, &page); err != nil {
		return nil, fmt.Errorf("error retrieving contacts for list '%v' (%w)", list.Name, err)
	}

	return &page, nil
}

// FetchNextPage retrieves the page at page.Paging.Next, which the provider returns as
// a host-relative URL that already carries the API key.
func (c *Client) FetchNextPage(ctx context.Context, page *Page) (*Page, error) {
	if page == nil || page.Paging.Next == "" {
		return nil, fmt.Errorf("no next page")
	}

	var next Page

	if err := c.get(ctx, c.host+page.Paging.Next, &next); err != nil {
		return nil, fmt.Errorf("error retrieving next page of contacts (%w)", err)
	}

	return &next, nil
}

// Contacts returns the pages of contacts for a list as a lazy sequence. Pages are only
// fetched as the sequence is consumed and ranging over it again restarts from the
// first page. A fetch error is yielded once and terminates the sequence.
func (c *Client) Contacts(ctx context.Context, list List) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		page, err := c.FetchContactsPage(ctx, list)

		for {
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(page, nil) || page.Paging.Next == "" {
				return
			}

			page, err = c.FetchNextPage(ctx, page)
		}
	}
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%v%v%v?api_key=%v", c.host, c.api, path, url.QueryEscape(c.key))
}

func (c *Client) get(ctx context.Context, uri string, reply any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	log.Debugf("GET %v", redact(uri))

	response, err := ctxhttp.Get(ctx, c.http, uri)
	if err != nil {
		return redactURLError(err)
	}

	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("error reading response from %v (%w)", redact(uri), err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return newAPIError(response.StatusCode, body)
	}

	if err := json.Unmarshal(body, reply); err != nil {
		return fmt.Errorf("invalid response from %v (%w)", redact(uri), err)
	}

	return nil
}
