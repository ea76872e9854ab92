// Public domain.

// Package tap runs ADQL queries on Table Access Protocol services.
//
// Both the synchronous (/sync) and the asynchronous, job based (/async)
// endpoints are supported.  Results are returned as vo.Tables.
package tap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/finder/vo"
)

// Mode selects the TAP endpoint.
type Mode int

const (
	Async Mode = iota
	Sync
)

// ParseMode parses "async" or "sync".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "async", "":
		return Async, nil
	case "sync":
		return Sync, nil
	}
	return 0, fmt.Errorf("invalid TAP mode %q", s)
}

func (m Mode) String() string {
	if m == Sync {
		return "sync"
	}
	return "async"
}

// UWS job phases.
const (
	PhasePending   = "PENDING"
	PhaseQueued    = "QUEUED"
	PhaseExecuting = "EXECUTING"
	PhaseCompleted = "COMPLETED"
	PhaseError     = "ERROR"
	PhaseAborted   = "ABORTED"
	PhaseHeld      = "HELD"
)

// QueryError is a failure reported by the service, as opposed to a
// failure to reach it.
type QueryError struct {
	Phase   string // job phase for async queries
	Message string
}

func (e *QueryError) Error() string {
	if e.Phase == "" {
		return "TAP query failed: " + e.Message
	}
	return fmt.Sprintf("TAP query failed (%s): %s", e.Phase, e.Message)
}

// Rand is the source of poll interval jitter.
type Rand interface {
	Float64() float64
}

// Client is a TAP service client.  A Client is not safe for concurrent
// use.
type Client struct {
	URL    string // service base URL, without /sync or /async
	HTTP   *http.Client
	Mode   Mode
	Format string // result format requested, default "csv"
	MaxRec int    // service row limit, if > 0

	// async polling.  the interval doubles up to the max.
	PollInterval    time.Duration // default 500ms
	MaxPollInterval time.Duration // default 10s

	Log  *log.Logger // debug lines, if not nil
	Rand Rand
}

// New returns an async Client for the service at u.  A nil hc means
// http.DefaultClient.
func New(u string, hc *http.Client) *Client {
	return &Client{URL: u, HTTP: hc}
}

func (c *Client) client() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) logf(f string, v ...interface{}) {
	if c.Log != nil {
		c.Log.Printf(f, v...)
	}
}

func (c *Client) endpoint(p string) string {
	return strings.TrimRight(c.URL, "/") + "/" + p
}

// Run runs an ADQL query and returns the result table.
func (c *Client) Run(ctx context.Context, adql string) (*vo.Table, error) {
	c.logf("TAP %s query:\n%s", c.Mode, adql)
	f := url.Values{
		"REQUEST": {"doQuery"},
		"LANG":    {"ADQL"},
		"QUERY":   {adql},
	}
	format := c.Format
	if format == "" {
		format = "csv"
	}
	f.Set("FORMAT", format)
	if c.MaxRec > 0 {
		f.Set("MAXREC", strconv.Itoa(c.MaxRec))
	}
	if c.Mode == Sync {
		return c.sync(ctx, f)
	}
	return c.async(ctx, f)
}

func (c *Client) sync(ctx context.Context, f url.Values) (*vo.Table, error) {
	r, err := c.post(ctx, c.endpoint("sync"), f)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()
	return c.decode(r)
}

func (c *Client) async(ctx context.Context, f url.Values) (*vo.Table, error) {
	f.Set("PHASE", "RUN")
	f.Set("RUNID", uuid.NewString())
	r, err := c.post(ctx, c.endpoint("async"), f)
	if err != nil {
		return nil, err
	}
	io.Copy(io.Discard, r.Body)
	r.Body.Close()
	job, err := jobURL(r)
	if err != nil {
		return nil, err
	}
	c.logf("TAP job %s", job)
	defer c.delete(ctx, job)

	rnd := c.Rand
	if rnd == nil {
		x := xrand.New(&xrand.PCGSource{})
		x.Seed(uint64(time.Now().UnixNano()))
		rnd = x
	}
	wait := c.PollInterval
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}
	maxWait := c.MaxPollInterval
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}
	started := false
	for {
		phase, err := c.phase(ctx, job)
		if err != nil {
			return nil, err
		}
		switch phase {
		case PhaseCompleted:
			return c.result(ctx, job)
		case PhaseError:
			return nil, c.jobError(ctx, job)
		case PhaseAborted:
			return nil, &QueryError{Phase: phase, Message: "job aborted"}
		case PhasePending, PhaseHeld:
			// PHASE=RUN on creation is optional for services
			if !started {
				r, err := c.post(ctx, job+"/phase", url.Values{"PHASE": {"RUN"}})
				if err != nil {
					return nil, err
				}
				io.Copy(io.Discard, r.Body)
				r.Body.Close()
				started = true
			}
		}
		// jittered to between half and full wait
		d := time.Duration(float64(wait) * (.5 + .5*rnd.Float64()))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
		if wait *= 2; wait > maxWait {
			wait = maxWait
		}
	}
}

// jobURL finds the job created by a POST to /async.  Redirects are
// normally followed, leaving the job URL as the final request URL.
func jobURL(r *http.Response) (string, error) {
	if r.StatusCode == http.StatusSeeOther {
		loc, err := r.Location()
		if err != nil {
			return "", fmt.Errorf("TAP job location: %w", err)
		}
		return strings.TrimRight(loc.String(), "/"), nil
	}
	u := *r.Request.URL
	u.RawQuery = ""
	if strings.HasSuffix(u.Path, "/async") {
		return "", errors.New("TAP service did not redirect to a job")
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func (c *Client) phase(ctx context.Context, job string) (string, error) {
	b, _, err := c.get(ctx, job+"/phase")
	if err != nil {
		return "", err
	}
	p := strings.ToUpper(strings.TrimSpace(string(b)))
	c.logf("TAP job phase %s", p)
	return p, nil
}

func (c *Client) result(ctx context.Context, job string) (*vo.Table, error) {
	b, ct, err := c.get(ctx, job+"/results/result")
	if err != nil {
		return nil, err
	}
	return read(b, ct)
}

func (c *Client) jobError(ctx context.Context, job string) error {
	b, _, err := c.get(ctx, job+"/error")
	if err != nil {
		return &QueryError{Phase: PhaseError, Message: "no error document: " + err.Error()}
	}
	_, err = vo.ReadVOTable(bytes.NewReader(b))
	var se *vo.StatusError
	if errors.As(err, &se) {
		return &QueryError{Phase: PhaseError, Message: se.Message}
	}
	return &QueryError{Phase: PhaseError, Message: strings.TrimSpace(string(b))}
}

// delete removes the job from the service.  It is attempted even after
// ctx is canceled.
func (c *Client) delete(ctx context.Context, job string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, job, nil)
	if err != nil {
		return
	}
	r, err := c.client().Do(req)
	if err != nil {
		c.logf("TAP job delete: %v", err)
		return
	}
	io.Copy(io.Discard, r.Body)
	r.Body.Close()
}

func (c *Client) post(ctx context.Context, u string, f url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u,
		strings.NewReader(f.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	if r.StatusCode >= 400 {
		defer r.Body.Close()
		b, _ := io.ReadAll(r.Body)
		return nil, statusError("POST", u, r, b)
	}
	return r, nil
}

func (c *Client) get(ctx context.Context, u string) (body []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	r, err := c.client().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer r.Body.Close()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	if r.StatusCode != http.StatusOK {
		return nil, "", statusError("GET", u, r, b)
	}
	return b, r.Header.Get("Content-Type"), nil
}

// statusError reports an HTTP error status, preferring an error
// message the service put in a VOTable body.
func statusError(method, u string, r *http.Response, body []byte) error {
	_, err := vo.ReadVOTable(bytes.NewReader(body))
	var se *vo.StatusError
	if errors.As(err, &se) {
		return &QueryError{Message: se.Message}
	}
	return fmt.Errorf("%s %s: %s", method, u, r.Status)
}

func (c *Client) decode(r *http.Response) (*vo.Table, error) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return read(b, r.Header.Get("Content-Type"))
}

// read parses a result as CSV or VOTable according to its content type.
func read(b []byte, contentType string) (*vo.Table, error) {
	mt, _, _ := mime.ParseMediaType(contentType)
	if strings.HasSuffix(mt, "csv") {
		return vo.ReadCSV(bytes.NewReader(b))
	}
	t, err := vo.ReadVOTable(bytes.NewReader(b))
	var se *vo.StatusError
	if errors.As(err, &se) {
		return nil, &QueryError{Message: se.Message}
	}
	return t, err
}
