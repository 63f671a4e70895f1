package projectdb_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"eventbatch/internal/projectdb"
	"eventbatch/internal/testsupport"
	"eventbatch/internal/timeline"
)

type eventState struct {
	Start, Length   timeline.Timecode
	Mute            bool
	FadeIn, FadeOut timeline.Timecode
	InCurve         timeline.CurveKind
	InTransition    string
	OutTransition   string
	Media           string
	Offline         bool
	Tape            string
	Offset          timeline.Timecode
	Takes           int
}

type trackState struct {
	Name     string
	Kind     timeline.MediaKind
	Selected bool
	Mute     bool
	Events   []eventState
}

func snapshot(p *timeline.Project) []trackState {
	var out []trackState
	for _, track := range p.Tracks() {
		ts := trackState{Name: track.Name, Kind: track.Kind, Selected: track.Selected, Mute: track.Mute}
		for _, e := range track.Events() {
			es := eventState{
				Start: e.Start, Length: e.Length, Mute: e.Mute,
				FadeIn: e.FadeIn.Length, FadeOut: e.FadeOut.Length, InCurve: e.FadeIn.Curve,
				Takes: len(e.Takes),
			}
			if e.FadeIn.Transition != nil {
				es.InTransition = e.FadeIn.Transition.Name
			}
			if e.FadeOut.Transition != nil {
				es.OutTransition = e.FadeOut.Transition.Name
			}
			if take := e.ActiveTake(); take != nil {
				es.Offset = take.Offset
				if take.Media != nil {
					es.Media = take.Media.Path
					es.Offline = take.Media.Offline
					es.Tape = take.Media.TapeName
				}
			}
			ts.Events = append(ts.Events, es)
		}
		out = append(out, ts)
	}
	return out
}

func sampleProject() *timeline.Project {
	p := testsupport.NewProject([]testsupport.TrackFixture{
		{Name: "V1", Events: []testsupport.EventFixture{
			{Start: 0, Length: 100, Offset: 5, MediaLength: 200, FadeIn: 5, FadeOut: 8, Transition: "Cross Dissolve"},
			{Start: 100, Length: 50, Offset: 20, MediaLength: 80, Mute: true},
		}},
		{Name: "Dialog", Kind: timeline.MediaAudio, Events: []testsupport.EventFixture{
			{Start: 10, Length: 40, Offset: 0, MediaLength: 40},
		}},
	})
	p.Tracks()[1].Selected = false
	p.Tracks()[1].Mute = true
	p.AddTransition("Push")
	p.AddRegion(timeline.Region{Start: 0, Length: 100, Name: "Scene 1"})
	p.AddRegion(timeline.Region{Start: 100, Length: 50})
	p.SetSelection(20, 60)

	placeholder := p.OfflineMedia("/out/Show_00001.mov")
	spliced := timeline.NewEvent(0, 100)
	spliced.AddTake(&timeline.Take{Media: placeholder})
	p.InsertTrack(0, timeline.MediaVideo, "V1 [ ProRes 422 HQ ]").Add(spliced)
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenProjectStore(t, cfg)
	ctx := context.Background()

	original := sampleProject()
	if err := store.Save(ctx, original); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if diff := cmp.Diff(snapshot(original), snapshot(loaded)); diff != "" {
		t.Fatalf("tracks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(original.Regions(), loaded.Regions()); diff != "" {
		t.Fatalf("regions mismatch (-want +got):\n%s", diff)
	}
	if start, length := loaded.Selection(); start != 20 || length != 60 {
		t.Fatalf("selection = (%v, %v)", start, length)
	}
	if loaded.FrameRate() != original.FrameRate() {
		t.Fatalf("frame rate = %v", loaded.FrameRate())
	}
	if _, ok := loaded.LookupTransition("Push"); !ok {
		t.Fatal("unused transition missing from catalog")
	}
	if len(loaded.Media()) != len(original.Media()) {
		t.Fatalf("media pool size = %d, want %d", len(loaded.Media()), len(original.Media()))
	}
}

func TestSaveReplacesPreviousProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenProjectStore(t, cfg)
	ctx := context.Background()

	if err := store.Save(ctx, sampleProject()); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	small := testsupport.NewProject([]testsupport.TrackFixture{{Name: "A", Events: []testsupport.EventFixture{{Start: 0, Length: 10, MediaLength: 10}}}})
	if err := store.Save(ctx, small); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Tracks()) != 1 || len(loaded.Regions()) != 0 {
		t.Fatalf("expected only the second project, got %d tracks %d regions", len(loaded.Tracks()), len(loaded.Regions()))
	}
}

func TestLoadEmptyProject(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenProjectStore(t, cfg)

	if _, err := store.Load(context.Background()); !errors.Is(err, projectdb.ErrNoProject) {
		t.Fatalf("expected ErrNoProject, got %v", err)
	}
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenProjectStore(t, cfg)
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.Paths.ProjectFile)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := projectdb.Open(context.Background(), cfg.Paths.ProjectFile); !errors.Is(err, projectdb.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestLockIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenProjectStore(t, cfg)
	second := testsupport.MustOpenProjectStore(t, cfg)

	if err := first.Lock(); err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	if err := second.Lock(); !errors.Is(err, projectdb.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := second.Lock(); err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
}
