package workspace

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dunning/internal/clock"
	"github.com/smallbiznis/dunning/internal/collection/domain"
	"github.com/smallbiznis/dunning/internal/config"
	obsmetrics "github.com/smallbiznis/dunning/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var start = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(clk clock.Clock) *Store {
	return NewStore(Params{
		Clock:   clk,
		Metrics: obsmetrics.NewWorkspaceMetricsForTest(prometheus.NewRegistry()),
	})
}

func debtBase() domain.DebtTable {
	return domain.DebtTable{Records: []domain.DebtRecord{
		{AccountID: "A", Period: "P1", DebtAmount: decimal.NewFromInt(100), DebtType: "T"},
	}}
}

func TestWorkspaceRetention(t *testing.T) {
	ws := newWorkspace("id", start)

	_, ok := ws.Debts()
	assert.False(t, ok)

	ws.LoadDebts(debtBase())
	debts, ok := ws.Debts()
	require.True(t, ok)
	require.NoError(t, ws.StoreResult(debts.Generation, domain.CrossCheckResult{RunID: "1"}))
	assert.Len(t, debts.Records, 1)
	result, ok := ws.Result()
	require.True(t, ok)
	assert.Equal(t, "1", result.RunID)

	ws.LoadDebts(debtBase())
	_, ok = ws.Result()
	assert.False(t, ok, "a new base invalidates the previous result")

	debts, _ = ws.Debts()
	require.NoError(t, ws.StoreResult(debts.Generation, domain.CrossCheckResult{RunID: "2"}))
	ws.Clear()
	_, ok = ws.Debts()
	assert.False(t, ok)
	_, ok = ws.Result()
	assert.False(t, ok)
}

func TestWorkspaceRejectsResultOfReplacedBase(t *testing.T) {
	ws := newWorkspace("id", start)

	assert.ErrorIs(t, ws.StoreResult(0, domain.CrossCheckResult{RunID: "0"}), domain.ErrStaleDebtBase)

	ws.LoadDebts(debtBase())
	first, _ := ws.Debts()
	ws.LoadDebts(debtBase())
	second, _ := ws.Debts()
	require.NotEqual(t, first.Generation, second.Generation)

	assert.ErrorIs(t, ws.StoreResult(first.Generation, domain.CrossCheckResult{RunID: "old"}), domain.ErrStaleDebtBase)
	_, ok := ws.Result()
	assert.False(t, ok)

	require.NoError(t, ws.StoreResult(second.Generation, domain.CrossCheckResult{RunID: "new"}))

	ws.Clear()
	ws.LoadDebts(debtBase())
	third, _ := ws.Debts()
	assert.NotEqual(t, second.Generation, third.Generation)
	assert.ErrorIs(t, ws.StoreResult(second.Generation, domain.CrossCheckResult{RunID: "cleared"}), domain.ErrStaleDebtBase)
}

func TestStoreIsolatesSessions(t *testing.T) {
	store := newTestStore(clock.NewFakeClock(start))

	a := store.Create()
	b := store.Create()
	require.NotEqual(t, a.ID(), b.ID())

	a.LoadDebts(debtBase())
	_, ok := b.Debts()
	assert.False(t, ok)

	got, err := store.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)

	ws, created := store.Resolve(b.ID())
	assert.False(t, created)
	assert.Same(t, b, ws)

	_, created = store.Resolve("")
	assert.True(t, created)
	assert.Equal(t, 3, store.Len())

	assert.True(t, store.Delete(a.ID()))
	assert.False(t, store.Delete(a.ID()))
	assert.Equal(t, 2, store.Len())
}

func TestSweepEvictsIdleWorkspaces(t *testing.T) {
	clk := clock.NewFakeClock(start)
	store := newTestStore(clk)

	idle := store.Create()
	busy := store.Create()

	clk.Advance(90 * time.Minute)
	_, err := store.Get(busy.ID())
	require.NoError(t, err)

	clk.Advance(45 * time.Minute)
	assert.Equal(t, 1, store.Sweep(2*time.Hour))

	_, err = store.Get(idle.ID())
	assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
	_, err = store.Get(busy.ID())
	assert.NoError(t, err)
}

func TestJanitorRunOnce(t *testing.T) {
	clk := clock.NewFakeClock(start)
	store := newTestStore(clk)
	store.Create()

	janitor := NewJanitor(JanitorParams{
		Store:  store,
		Log:    zap.NewNop(),
		Clock:  clk,
		Config: JanitorConfig{IdleTTL: time.Minute},
	})

	assert.Equal(t, 0, janitor.RunOnce())
	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, janitor.RunOnce())
	assert.Zero(t, store.Len())
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := newTestStore(clock.NewFakeClock(start))
	ws := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Get(ws.ID())
			if err != nil {
				return
			}
			got.LoadDebts(debtBase())
			got.Debts()
			store.Create()
		}()
	}
	wg.Wait()
	assert.Equal(t, 17, store.Len())
}

func TestCookieManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewCookieManager(config.Config{AuthCookieSecure: true}, JanitorConfig{IdleTTL: time.Hour})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	m.Set(c, "01HV")

	cookie := w.Result().Cookies()[0]
	assert.Equal(t, DefaultCookieName, cookie.Name)
	assert.Equal(t, "01HV", cookie.Value)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "01HV"})
	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = req
	id, ok := m.ReadID(c2)
	assert.True(t, ok)
	assert.Equal(t, "01HV", id)
}
