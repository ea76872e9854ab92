// Public domain.

package tap_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/finder/sky"
	"github.com/soniakeys/finder/tap"
)

const m45CSV = `ra,dec,j_m,designation
56.7500000,24.1167000,6.8,03450000+2407000
56.7600000,24.1000000,14.9,03450240+2406000
56.7500000,24.2000000,9.0,03450000+2412000
56.7400000,24.1200000,15.5,03445760+2407120
,,12.0,nopos
`

const errorVOTable = `<VOTABLE><RESOURCE type="results">
<INFO name="QUERY_STATUS" value="ERROR">Table fp_psx does not exist</INFO>
</RESOURCE></VOTABLE>`

// fakeTAP is a TAP service with one result table.  Queries mentioning
// fp_psx fail.
type fakeTAP struct {
	t *testing.T

	mu      sync.Mutex
	queries []string
	phases  map[string][]string // remaining phases per job
	deleted []string
	polls   int
}

func (f *fakeTAP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := r.URL.Path
	switch {
	case p == "/tap/sync" && r.Method == http.MethodPost:
		q := f.form(r)
		if strings.Contains(q, "fp_psx") {
			w.Header().Set("Content-Type", "text/xml")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, errorVOTable)
			return
		}
		w.Header().Set("Content-Type", "text/csv;charset=utf-8")
		io.WriteString(w, m45CSV)
	case p == "/tap/async" && r.Method == http.MethodPost:
		q := f.form(r)
		assert.Equal(f.t, "RUN", r.PostForm.Get("PHASE"))
		assert.NotEmpty(f.t, r.PostForm.Get("RUNID"))
		job := "j1"
		f.phases[job] = []string{"QUEUED", "EXECUTING", "COMPLETED"}
		if strings.Contains(q, "fp_psx") {
			job = "j2"
			f.phases[job] = []string{"EXECUTING", "ERROR"}
		}
		http.Redirect(w, r, "/tap/async/"+job, http.StatusSeeOther)
	case strings.HasPrefix(p, "/tap/async/"):
		f.job(w, r, strings.TrimPrefix(p, "/tap/async/"))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeTAP) form(r *http.Request) string {
	require.NoError(f.t, r.ParseForm())
	assert.Equal(f.t, "doQuery", r.PostForm.Get("REQUEST"))
	assert.Equal(f.t, "ADQL", r.PostForm.Get("LANG"))
	q := r.PostForm.Get("QUERY")
	f.queries = append(f.queries, q)
	return q
}

func (f *fakeTAP) job(w http.ResponseWriter, r *http.Request, p string) {
	parts := strings.SplitN(p, "/", 2)
	job, rest := parts[0], ""
	if len(parts) == 2 {
		rest = parts[1]
	}
	ph := f.phases[job]
	switch {
	case rest == "" && r.Method == http.MethodGet:
		io.WriteString(w, `<uws:job xmlns:uws="http://www.ivoa.net/xml/UWS/v1.0"/>`)
	case rest == "" && r.Method == http.MethodDelete:
		f.deleted = append(f.deleted, job)
		http.Redirect(w, r, "/tap/async", http.StatusSeeOther)
	case rest == "phase":
		f.polls++
		io.WriteString(w, ph[0]+"\n")
		if len(ph) > 1 {
			f.phases[job] = ph[1:]
		}
	case rest == "results/result" && ph[0] == "COMPLETED":
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, m45CSV)
	case rest == "error" && ph[0] == "ERROR":
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, errorVOTable)
	default:
		http.NotFound(w, r)
	}
}

type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

func newFake(t *testing.T, mode tap.Mode) (*fakeTAP, *tap.Client) {
	f := &fakeTAP{t: t, phases: map[string][]string{}}
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	c := tap.New(ts.URL+"/tap", ts.Client())
	c.Mode = mode
	c.PollInterval = time.Millisecond
	c.MaxPollInterval = 2 * time.Millisecond
	c.Rand = fixed(.5)
	return f, c
}

func TestRunSync(t *testing.T) {
	f, c := newFake(t, tap.Sync)
	tb, err := c.Run(context.Background(), "SELECT * FROM fp_psc")
	require.NoError(t, err)
	require.Equal(t, 5, tb.Len(), spew.Sdump(tb))
	assert.Equal(t, []string{"SELECT * FROM fp_psc"}, f.queries)
	assert.Equal(t, "03450000+2407000", tb.Value(0, tb.Column("designation")))
}

func TestRunAsync(t *testing.T) {
	f, c := newFake(t, tap.Async)
	tb, err := c.Run(context.Background(), "SELECT * FROM fp_psc")
	require.NoError(t, err)
	require.Equal(t, 5, tb.Len(), spew.Sdump(tb))
	assert.Equal(t, 3, f.polls)
	assert.Equal(t, []string{"j1"}, f.deleted)
}

func TestRunErrors(t *testing.T) {
	for _, mode := range []tap.Mode{tap.Sync, tap.Async} {
		f, c := newFake(t, mode)
		_, err := c.Run(context.Background(), "SELECT * FROM fp_psx")
		var qe *tap.QueryError
		require.True(t, errors.As(err, &qe), "%s: %v", mode, err)
		assert.Equal(t, "Table fp_psx does not exist", qe.Message)
		if mode == tap.Async {
			assert.Equal(t, tap.PhaseError, qe.Phase)
			assert.Equal(t, []string{"j2"}, f.deleted)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	f, c := newFake(t, tap.Async)
	c.PollInterval = time.Hour
	c.MaxPollInterval = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Run(ctx, "SELECT * FROM fp_psc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{"j1"}, f.deleted)
}

func TestCone(t *testing.T) {
	f, c := newFake(t, tap.Sync)
	cat := &tap.PointSourceCatalog{
		Client: c,
		Table:  "fp_psc",
		MagCol: "j_m",
	}
	center := sky.FromDeg(56.75, 24.1167)
	ss, err := cat.Cone(context.Background(), center, unit.AngleFromMin(3), 15)
	require.NoError(t, err)
	// dropped: 5' north, fainter than 15, no position
	require.Len(t, ss, 2, spew.Sdump(ss))
	assert.Equal(t, 6.8, ss[0].Mag)
	assert.Equal(t, 14.9, ss[1].Mag)
	assert.InDelta(t, 56.76, ss[1].RADeg(), 1e-9)
	require.Len(t, f.queries, 1)
	assert.Contains(t, f.queries[0], "CIRCLE('ICRS',56.75,24.1167,0.05))=1")
	assert.Contains(t, f.queries[0], "AND j_m<= 15.0")
}
