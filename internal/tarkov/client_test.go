package tarkov

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func newTestClient(url string, opts ...Option) *Client {
	base := []Option{
		WithURL(url),
		WithRetryInterval(time.Millisecond),
		WithRequestDelay(0),
		WithProgress(NopProgress),
	}
	return New(append(base, opts...)...)
}

func TestItems(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write(loadFixture(t, "items.json"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, WithLang("ru"), WithGameMode("regular"))
	items, err := c.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Contains(t, got.Query, "items(lang: $lang, gameMode: $gameMode)")
	assert.Equal(t, "ru", got.Variables["lang"])
	assert.Equal(t, "regular", got.Variables["gameMode"])

	money := items[0]
	assert.Equal(t, "Roubles", money.Name)
	assert.Nil(t, money.Avg24hPrice)
	assert.Len(t, money.BartersUsing, 2)

	gpu := items[1]
	assert.Equal(t, "Electronics", gpu.CategoryName())
	require.NotNil(t, gpu.LastOfferCount)
	assert.Equal(t, 87, *gpu.LastOfferCount)
	require.Len(t, gpu.SellFor, 3)
	assert.Equal(t, "flea-market", gpu.SellFor[2].Source)
	assert.Equal(t, 405000.0, *gpu.SellFor[2].PriceRUB)
}

func TestHistoricalPrices(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write(loadFixture(t, "history.json"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, WithHistoryDays(7))
	prices, err := c.HistoricalPrices(context.Background(), "57347ca924597744596b4e71")
	require.NoError(t, err)
	require.Len(t, prices, 3)

	assert.Equal(t, "57347ca924597744596b4e71", got.Variables["id"])
	assert.EqualValues(t, 7, got.Variables["days"])

	assert.Equal(t, Timestamp(1700000000000), prices[0].Timestamp)
	assert.Equal(t, Timestamp(1700007200000), prices[2].Timestamp)
	assert.Nil(t, prices[1].PriceMin)
	assert.Equal(t, 120.0, *prices[2].Price)
}

func TestHistoricalPrices_RequiresID(t *testing.T) {
	c := New()
	_, err := c.HistoricalPrices(context.Background(), "")
	assert.Error(t, err)
}

func TestHistoricalPricesBatch_ContinuesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"bad"`) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errors":[{"message":"bad id"}]}`))
			return
		}
		w.Write(loadFixture(t, "history.json"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	histories, err := c.HistoricalPricesBatch(context.Background(), []string{"a", "bad", "b"})
	require.NoError(t, err)

	assert.Len(t, histories, 3)
	assert.Len(t, histories["a"], 3)
	assert.Empty(t, histories["bad"])
	assert.Len(t, histories["b"], 3)
}

func TestHistoricalPricesBatch_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(loadFixture(t, "history.json"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(srv.URL, WithRequestDelay(time.Hour))
	_, err := c.HistoricalPricesBatch(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTraders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(loadFixture(t, "traders.json"))
	}))
	defer srv.Close()

	traders, err := newTestClient(srv.URL).Traders(context.Background())
	require.NoError(t, err)
	require.Len(t, traders, 2)

	prapor := traders[0]
	assert.Equal(t, "prapor", prapor.NormalizedName)
	require.Len(t, prapor.CashOffers, 1)

	offer := prapor.CashOffers[0]
	assert.Equal(t, 10, offer.BuyLimit)
	assert.Equal(t, 1, offer.MinTraderLevel)
	assert.Nil(t, offer.TaskUnlock)
	assert.Equal(t, 11000.0, *offer.Item.BasePrice)
}

func TestRunQuery_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := newTestClient(srv.URL, WithMaxRetries(3)).RunQuery(context.Background(), "{ ok }", nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRunQuery_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, WithMaxRetries(2)).RunQuery(context.Background(), "{ ok }", nil, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRunQuery_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<html><head><title>Access denied | api.tarkov.dev</title></head><body>blocked</body></html>`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, WithMaxRetries(5)).RunQuery(context.Background(), "{ ok }", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "Access denied | api.tarkov.dev")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRunQuery_GraphQLErrors(t *testing.T) {
	t.Run("errors without data fail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errors":[{"message":"Syntax Error"}],"data":null}`))
		}))
		defer srv.Close()

		err := newTestClient(srv.URL).RunQuery(context.Background(), "{", nil, nil)
		var ge *GraphQLError
		require.True(t, errors.As(err, &ge))
		assert.Equal(t, []string{"Syntax Error"}, ge.Messages)
	})

	t.Run("errors with data succeed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errors":[{"message":"partial"}],"data":{"ok":true}}`))
		}))
		defer srv.Close()

		var out struct {
			OK bool `json:"ok"`
		}
		require.NoError(t, newTestClient(srv.URL).RunQuery(context.Background(), "{ ok }", nil, &out))
		assert.True(t, out.OK)
	})

	t.Run("empty response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		err := newTestClient(srv.URL).RunQuery(context.Background(), "{ ok }", nil, nil)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func TestSummarizeBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"html title", "text/html; charset=UTF-8", "<html><title> 502 Bad Gateway </title></html>", "502 Bad Gateway"},
		{"html without title", "", "<div>upstream\n  timeout</div>", "upstream timeout"},
		{"plain text", "text/plain", "rate   limited", "rate limited"},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summarizeBody(tt.contentType, []byte(tt.body)))
		})
	}

	long := strings.Repeat("x", maxSummaryLen+50)
	assert.Len(t, summarizeBody("text/plain", []byte(long)), maxSummaryLen+3)
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Timestamp
		wantErr bool
	}{
		{`"1700000000000"`, 1700000000000, false},
		{`1700000000000`, 1700000000000, false},
		{`1.7e12`, 1700000000000, false},
		{`null`, 0, false},
		{`"yesterday"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.in), &ts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts)
		})
	}

	assert.Equal(t, int64(1700000000), Timestamp(1700000000000).Time().Unix())
}
