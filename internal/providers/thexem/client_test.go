package thexem

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetShowMap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/map/all", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","data":{"1":{"scene":{"season":1,"episode":1,"absolute":1},"tvdb":{"season":1,"episode":1,"absolute":1}},"2":{"scene":{"season":1,"episode":2,"absolute":2},"tvdb":{"season":1,"episode":2,"absolute":13}}}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	m, err := client.GetShowMap(t.Context(), 121)
	require.NoError(t, err)
	require.Equal(t, 13, m[2])
}

func TestGetExpectedTitles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/map/allNames", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","data":{"76107":["One Piece",{"One Piece (1999)":1}],"75692":["Naruto Shippuden",{"Naruto: Shippuuden":1}]}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	titles, err := client.GetExpectedTitles(t.Context())
	require.NoError(t, err)
	require.True(t, titles["one piece"])
	require.True(t, titles["naruto shippuden"])
	require.True(t, titles["naruto shippuuden"])
}

func TestGetSeasonOverrideIgnoresSentinel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/map/single", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","data":[{"season":-1,"episode":1,"absolute":1},{"season":2,"episode":1,"absolute":14}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	abs, ok := client.GetSeasonOverride(t.Context(), 121, 2)
	require.True(t, ok)
	require.Equal(t, 14, abs)

	_, ok = client.GetSeasonOverride(t.Context(), 121, -1)
	require.False(t, ok)
}
