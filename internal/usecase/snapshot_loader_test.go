package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	datasetmock "github.com/riskibarqy/skater-value/internal/mocks/domain/dataset"
	"github.com/riskibarqy/skater-value/internal/platform/cache"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var loaderNow = time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC)

func loaderTable(player string) dataset.Table {
	return dataset.Table{Columns: []string{"Player"}, Rows: [][]string{{player}}}
}

func newTestLoader(repo dataset.Repository, source dataset.Source) *SnapshotLoader {
	loader := NewSnapshotLoader(repo, source, map[string]cache.Policy{
		dataset.NameAllStrengths: cache.Window(time.Hour),
		dataset.NameRoster:       cache.UntilMidnight(time.UTC),
	}, nil, nil)
	loader.now = func() time.Time { return loaderNow }
	return loader
}

func TestSnapshotLoader_ServesFreshSnapshot(t *testing.T) {
	t.Parallel()

	repo := datasetmock.NewRepository(t)
	source := datasetmock.NewSource(t)
	cached := loaderTable("cached")

	repo.On("Get", mock.Anything, dataset.NameAllStrengths).
		Return(dataset.NewSnapshot(dataset.NameAllStrengths, cached, loaderNow.Add(-59*time.Minute)), true, nil).
		Once()

	got, err := newTestLoader(repo, source).Load(context.Background(), dataset.NameAllStrengths)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Rows[0][0] != "cached" {
		t.Fatalf("expected cached table, got %+v", got)
	}
	source.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestSnapshotLoader_RefreshesStaleOrMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dataset string
		found   bool
		getErr  error
		written time.Time
	}{
		{name: "stale window", dataset: dataset.NameAllStrengths, found: true, written: loaderNow.Add(-time.Hour)},
		{name: "absent", dataset: dataset.NameAllStrengths, found: false},
		{name: "unreadable", dataset: dataset.NameAllStrengths, getErr: errors.New("corrupt csv")},
		{name: "roster from yesterday", dataset: dataset.NameRoster, found: true, written: loaderNow.Add(-13 * time.Hour)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := datasetmock.NewRepository(t)
			source := datasetmock.NewSource(t)
			fresh := loaderTable("fresh")

			repo.On("Get", mock.Anything, tc.dataset).
				Return(dataset.NewSnapshot(tc.dataset, loaderTable("old"), tc.written), tc.found, tc.getErr).
				Once()
			source.On("Fetch", mock.Anything, tc.dataset).Return(fresh, nil).Once()
			repo.On("Put", mock.Anything, mock.MatchedBy(func(s dataset.Snapshot) bool {
				return s.Key == tc.dataset && s.WrittenAt.Equal(loaderNow) && s.Payload.Rows[0][0] == "fresh"
			})).Return(nil).Once()

			got, err := newTestLoader(repo, source).Load(context.Background(), tc.dataset)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.Rows[0][0] != "fresh" {
				t.Fatalf("expected fetched table, got %+v", got)
			}
		})
	}
}

func TestSnapshotLoader_LogsSnapshotAge(t *testing.T) {
	t.Parallel()

	repo := datasetmock.NewRepository(t)
	source := datasetmock.NewSource(t)
	repo.On("Get", mock.Anything, dataset.NameAllStrengths).
		Return(dataset.NewSnapshot(dataset.NameAllStrengths, loaderTable("old"), loaderNow.Add(-2*time.Hour)), true, nil).
		Once()
	source.On("Fetch", mock.Anything, dataset.NameAllStrengths).Return(loaderTable("fresh"), nil).Once()
	repo.On("Put", mock.Anything, mock.Anything).Return(nil).Once()

	var buf bytes.Buffer
	loader := NewSnapshotLoader(repo, source, map[string]cache.Policy{
		dataset.NameAllStrengths: cache.Window(time.Hour),
	}, nil, logging.NewWithWriter(logging.FormatJSON, logging.LevelDebug, &buf))
	loader.now = func() time.Time { return loaderNow }

	if _, err := loader.Load(context.Background(), dataset.NameAllStrengths); err != nil {
		t.Fatalf("load: %v", err)
	}

	var staleLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "snapshot stale, refetching") {
			staleLine = line
		}
	}
	if staleLine == "" {
		t.Fatalf("expected a stale snapshot log line, got %q", buf.String())
	}
	if !strings.Contains(staleLine, `"age":"2h0m0s"`) {
		t.Fatalf("expected snapshot age in log line, got %q", staleLine)
	}
}

func TestSnapshotLoader_SourceFailuresAreFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		table dataset.Table
		err   error
	}{
		{name: "fetch error", err: errors.New("connection refused")},
		{name: "empty table", table: dataset.Table{Columns: []string{"Player"}}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := datasetmock.NewRepository(t)
			source := datasetmock.NewSource(t)
			repo.On("Get", mock.Anything, dataset.NameAllStrengths).Return(dataset.Snapshot{}, false, nil).Once()
			source.On("Fetch", mock.Anything, dataset.NameAllStrengths).Return(tc.table, tc.err).Once()

			_, err := newTestLoader(repo, source).Load(context.Background(), dataset.NameAllStrengths)
			if !errors.Is(err, ErrSourceUnavailable) {
				t.Fatalf("expected ErrSourceUnavailable, got %v", err)
			}
			repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
		})
	}
}

func TestSnapshotLoader_SnapshotWriteFailureIsFatal(t *testing.T) {
	t.Parallel()

	repo := datasetmock.NewRepository(t)
	source := datasetmock.NewSource(t)
	repo.On("Get", mock.Anything, dataset.NameAllStrengths).Return(dataset.Snapshot{}, false, nil).Once()
	source.On("Fetch", mock.Anything, dataset.NameAllStrengths).Return(loaderTable("fresh"), nil).Once()
	repo.On("Put", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	_, err := newTestLoader(repo, source).Load(context.Background(), dataset.NameAllStrengths)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestSnapshotLoader_UnknownDataset(t *testing.T) {
	t.Parallel()

	repo := datasetmock.NewRepository(t)
	source := datasetmock.NewSource(t)

	_, err := newTestLoader(repo, source).Load(context.Background(), dataset.NameEvenStrength)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
