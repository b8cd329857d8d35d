package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitsync/internal/fit"
)

func newTestServer(t *testing.T, token string) (*httptest.Server, *MemoryRecordStore) {
	t.Helper()
	store := NewMemoryRecordStore()
	srv := httptest.NewServer(NewHandler(store, token, nil, fixedClock{testNow}, &seqIDs{}))
	t.Cleanup(srv.Close)
	return srv, store
}

func newTestHTTPClient(t *testing.T, url, token string) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(url, "user-1", token, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	return c
}

func TestHTTPClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	srv, store := newTestServer(t, "secret")
	c := newTestHTTPClient(t, srv.URL, "secret")

	p, err := c.GetProfile(ctx)
	if err != nil || p != nil {
		t.Fatalf("GetProfile() = %+v, %v; want nil, nil", p, err)
	}

	if _, err := c.AddWeightEntry(ctx, "2024-01-15", 104.5); err != nil {
		t.Fatalf("AddWeightEntry() error = %v", err)
	}
	if _, err := c.UpdateProfile(ctx, 104.5); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	p, err = c.GetProfile(ctx)
	if err != nil || p == nil || p.CurrentWeight != 104.5 {
		t.Fatalf("GetProfile() = %+v, %v", p, err)
	}

	weights, err := c.GetWeightEntries(ctx)
	if err != nil {
		t.Fatalf("GetWeightEntries() error = %v", err)
	}
	if len(weights) != 1 || weights[0] != (fit.WeightEntry{Date: "2024-01-15", Weight: 104.5}) {
		t.Errorf("GetWeightEntries() = %v", weights)
	}

	w, err := c.UpsertWorkoutEntry(ctx, "2024-01-15", fit.WorkoutEntry{
		Date: "2024-01-15", DurationMinutes: 20, Intensity: 2, Completed: true, WorkoutType: fit.WorkoutStrength,
	})
	if err != nil {
		t.Fatalf("UpsertWorkoutEntry() error = %v", err)
	}
	if w.ID == "" {
		t.Error("UpsertWorkoutEntry() returned no server id")
	}
	if store.Len(CollectionWorkouts) != 1 {
		t.Errorf("stored workouts = %d, want 1", store.Len(CollectionWorkouts))
	}

	workouts, err := c.GetWorkoutEntries(ctx)
	if err != nil {
		t.Fatalf("GetWorkoutEntries() error = %v", err)
	}
	if len(workouts) != 1 || workouts[0].ID != w.ID || workouts[0].WorkoutType != fit.WorkoutStrength {
		t.Errorf("GetWorkoutEntries() = %+v", workouts)
	}

	if err := c.DeleteWorkoutEntry(ctx, "2024-01-15"); err != nil {
		t.Fatalf("DeleteWorkoutEntry() error = %v", err)
	}
	if err := c.DeleteWorkoutEntry(ctx, "2024-01-15"); err != nil {
		t.Errorf("DeleteWorkoutEntry(absent) error = %v", err)
	}

	if !c.CheckConnection(ctx) {
		t.Error("CheckConnection() = false, want true")
	}
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("bad token fails calls but not the connection check", func(t *testing.T) {
		srv, _ := newTestServer(t, "secret")
		c := newTestHTTPClient(t, srv.URL, "wrong")

		_, err := c.GetWeightEntries(ctx)
		if !errors.Is(err, fit.ErrRemoteFailure) {
			t.Errorf("error = %v, want ErrRemoteFailure", err)
		}
		// The server itself is reachable; failures surface on the calls.
		if !c.CheckConnection(ctx) {
			t.Error("CheckConnection() = false, want true")
		}
	})

	t.Run("server answering 404 everywhere is not connected", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		c := newTestHTTPClient(t, srv.URL, "")

		p, err := c.GetProfile(ctx)
		if err != nil || p != nil {
			t.Fatalf("GetProfile() = %+v, %v; want nil, nil", p, err)
		}
		if c.CheckConnection(ctx) {
			t.Error("CheckConnection() = true, want false")
		}
	})

	t.Run("invalid date is a remote failure", func(t *testing.T) {
		srv, _ := newTestServer(t, "")
		c := newTestHTTPClient(t, srv.URL, "")

		_, err := c.AddWeightEntry(ctx, "yesterday", 100)
		if !errors.Is(err, fit.ErrRemoteFailure) {
			t.Errorf("error = %v, want ErrRemoteFailure", err)
		}
	})

	t.Run("closed server is unreachable", func(t *testing.T) {
		srv, _ := newTestServer(t, "")
		c := newTestHTTPClient(t, srv.URL, "")
		srv.Close()

		_, err := c.GetWorkoutEntries(ctx)
		if !errors.Is(err, fit.ErrUnreachable) {
			t.Errorf("error = %v, want ErrUnreachable", err)
		}
		if !fit.IsOffline(err) {
			t.Error("IsOffline() = false, want true")
		}
	})

	t.Run("server error is a remote failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		c := newTestHTTPClient(t, srv.URL, "")

		_, err := c.UpdateProfile(ctx, 100)
		if !errors.Is(err, fit.ErrRemoteFailure) {
			t.Errorf("error = %v, want ErrRemoteFailure", err)
		}
	})
}

func TestNewHTTPClient_InvalidURL(t *testing.T) {
	if _, err := NewHTTPClient("not a url", "u", "", 0); err == nil {
		t.Error("NewHTTPClient() expected error")
	}
}

func TestHandler_Health(t *testing.T) {
	srv, _ := newTestServer(t, "secret")

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
