package integration

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentSettlements verifies the serialization property: N
// concurrent batches each adding the same amount to one seller must
// land exactly N times, with no update lost to interleaving.
func TestConcurrentSettlements(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t)

	resp := app.do(t, http.MethodPost, "/seller", token, `{"id":"A","name":"Alice","rate":0.25}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	concurrency := 50
	var wg sync.WaitGroup
	var succeeded atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := app.do(t, http.MethodPost, "/sell", token, `[{"sellerId":"A","price":0.10}]`)
			if r.StatusCode == http.StatusOK {
				succeeded.Add(1)
			}
			r.Body.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(concurrency), succeeded.Load())

	// 50 x 0.10, exactly.
	resp = app.do(t, http.MethodGet, "/sellers/A", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"A","name":"Alice","balance":"5.00","rate":"0.25"}`, readBody(t, resp))

	// Every committed batch reaches the trail, one entry each.
	require.Eventually(t, func() bool {
		return len(app.trail.all()) == concurrency
	}, 2*time.Second, 10*time.Millisecond)
}

// TestConcurrentCreates verifies that racing registrations of the same
// id produce exactly one seller.
func TestConcurrentCreates(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t)

	concurrency := 10
	var wg sync.WaitGroup
	var created, conflicted atomic.Int64

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := app.do(t, http.MethodPost, "/seller", token, `{"id":"A","name":"Alice","rate":0.25}`)
			switch r.StatusCode {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicted.Add(1)
			}
			r.Body.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), created.Load())
	assert.Equal(t, int64(concurrency-1), conflicted.Load())
}

// TestConcurrentSettleAndDelete verifies that deletion never races a
// settlement into dropping money: either the delete wins while the
// balance is zero, or it is refused.
func TestConcurrentSettleAndDelete(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t)

	resp := app.do(t, http.MethodPost, "/seller", token, `{"id":"A","name":"Alice","rate":0.25}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var wg sync.WaitGroup
	var settled, deleted atomic.Int64

	wg.Add(2)
	go func() {
		defer wg.Done()
		r := app.do(t, http.MethodPost, "/sell", token, `[{"sellerId":"A","price":3.33}]`)
		if r.StatusCode == http.StatusOK {
			settled.Add(1)
		}
		r.Body.Close()
	}()
	go func() {
		defer wg.Done()
		r := app.do(t, http.MethodDelete, "/seller/A", token, "")
		if r.StatusCode == http.StatusOK {
			deleted.Add(1)
		}
		r.Body.Close()
	}()
	wg.Wait()

	// Whichever writer takes the lock first wins; the loser is always
	// refused. Both succeeding would mean a half-applied batch or a
	// deleted seller holding money.
	require.Equal(t, int64(1), settled.Load()+deleted.Load())

	resp = app.do(t, http.MethodGet, "/sellers/A", token, "")
	if deleted.Load() == 1 {
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
		return
	}
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"A","name":"Alice","balance":"3.33","rate":"0.25"}`, readBody(t, resp))
}
