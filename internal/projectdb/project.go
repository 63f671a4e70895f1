package projectdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventbatch/internal/timeline"
)

// ErrNoProject is returned by Load before anything has been saved.
var ErrNoProject = errors.New("project file is empty")

// Save replaces the stored project with p.
func (s *Store) Save(ctx context.Context, p *timeline.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"takes", "events", "tracks", "regions", "media", "transitions", "project"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	start, length := p.Selection()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO project (id, frame_rate, selection_start, selection_length, saved_at) VALUES (1, ?, ?, ?, ?)`,
		p.FrameRate(), int64(start), int64(length), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	for _, tr := range p.Transitions() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO transitions (name) VALUES (?)`, tr.Name); err != nil {
			return fmt.Errorf("insert transition %q: %w", tr.Name, err)
		}
	}

	mediaIDs := make(map[*timeline.Media]int64)
	insertMedia := func(m *timeline.Media) (int64, error) {
		if id, ok := mediaIDs[m]; ok {
			return id, nil
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO media (path, length, tape_name, comment, offline) VALUES (?, ?, ?, ?, ?)`,
			m.Path, int64(m.Length), nullableString(m.TapeName), nullableString(m.Comment), m.Offline,
		)
		if err != nil {
			return 0, fmt.Errorf("insert media %s: %w", m.Path, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("last insert id: %w", err)
		}
		mediaIDs[m] = id
		return id, nil
	}
	for _, m := range p.Media() {
		if _, err := insertMedia(m); err != nil {
			return err
		}
	}

	for position, track := range p.Tracks() {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (position, name, kind, selected, mute) VALUES (?, ?, ?, ?, ?)`,
			position, track.Name, string(track.Kind), track.Selected, track.Mute,
		)
		if err != nil {
			return fmt.Errorf("insert track %q: %w", track.Name, err)
		}
		trackID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		for index, event := range track.Events() {
			if err := saveEvent(ctx, tx, trackID, index, event, insertMedia); err != nil {
				return fmt.Errorf("track %q event %d: %w", track.Name, index, err)
			}
		}
	}

	for position, region := range p.Regions() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO regions (position, start, length, name) VALUES (?, ?, ?, ?)`,
			position, int64(region.Start), int64(region.Length), nullableString(region.Name),
		); err != nil {
			return fmt.Errorf("insert region %d: %w", position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func saveEvent(ctx context.Context, tx *sql.Tx, trackID int64, position int, e *timeline.Event, insertMedia func(*timeline.Media) (int64, error)) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO events (
            track_id, position, start, length, mute,
            fade_in_length, fade_in_curve, fade_in_gain, fade_in_reciprocal, fade_in_transition,
            fade_out_length, fade_out_curve, fade_out_gain, fade_out_reciprocal, fade_out_transition
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trackID, position, int64(e.Start), int64(e.Length), e.Mute,
		int64(e.FadeIn.Length), string(e.FadeIn.Curve), e.FadeIn.Gain, e.FadeIn.ReciprocalCurve, transitionName(e.FadeIn.Transition),
		int64(e.FadeOut.Length), string(e.FadeOut.Curve), e.FadeOut.Gain, e.FadeOut.ReciprocalCurve, transitionName(e.FadeOut.Transition),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	eventID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	for i, take := range e.Takes {
		var mediaID sql.NullInt64
		if take.Media != nil {
			id, err := insertMedia(take.Media)
			if err != nil {
				return err
			}
			mediaID = sql.NullInt64{Int64: id, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO takes (event_id, position, media_id, take_offset) VALUES (?, ?, ?, ?)`,
			eventID, i, mediaID, int64(take.Offset),
		); err != nil {
			return fmt.Errorf("insert take %d: %w", i, err)
		}
	}
	return nil
}

// Load reads the stored project. The result has no render backend or prober;
// callers attach them with Project.Configure.
func (s *Store) Load(ctx context.Context) (*timeline.Project, error) {
	var (
		rate             float64
		selStart, selLen int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT frame_rate, selection_start, selection_length FROM project WHERE id = 1`,
	).Scan(&rate, &selStart, &selLen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoProject
	}
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}

	p := timeline.NewProject(rate)
	p.SetSelection(timeline.Timecode(selStart), timeline.Timecode(selLen))

	if err := s.loadTransitions(ctx, p); err != nil {
		return nil, err
	}
	media, err := s.loadMedia(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.loadTracks(ctx, p, media); err != nil {
		return nil, err
	}
	if err := s.loadRegions(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) loadTransitions(ctx context.Context, p *timeline.Project) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM transitions ORDER BY id`)
	if err != nil {
		return fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan transition: %w", err)
		}
		p.AddTransition(name)
	}
	return rows.Err()
}

// loadMedia rebuilds the pool. A second entry with an already pooled path is
// kept for its takes but not pooled again.
func (s *Store) loadMedia(ctx context.Context, p *timeline.Project) (map[int64]*timeline.Media, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, path, length, tape_name, comment, offline FROM media ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*timeline.Media)
	for rows.Next() {
		var (
			id        int64
			m         timeline.Media
			length    int64
			tape, cmt sql.NullString
		)
		if err := rows.Scan(&id, &m.Path, &length, &tape, &cmt, &m.Offline); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		m.Length = timeline.Timecode(length)
		m.TapeName = tape.String
		m.Comment = cmt.String
		p.AddMedia(&m)
		byID[id] = &m
	}
	return byID, rows.Err()
}

func (s *Store) loadTracks(ctx context.Context, p *timeline.Project, media map[int64]*timeline.Media) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, kind, selected, mute FROM tracks ORDER BY position`)
	if err != nil {
		return fmt.Errorf("query tracks: %w", err)
	}
	type trackRow struct {
		id    int64
		track *timeline.Track
	}
	var loaded []trackRow
	for rows.Next() {
		var (
			id             int64
			name, kind     string
			selected, mute bool
		)
		if err := rows.Scan(&id, &name, &kind, &selected, &mute); err != nil {
			rows.Close()
			return fmt.Errorf("scan track: %w", err)
		}
		track := p.AddTrack(timeline.MediaKind(kind), name)
		track.Selected = selected
		track.Mute = mute
		loaded = append(loaded, trackRow{id: id, track: track})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, row := range loaded {
		if err := s.loadEvents(ctx, p, row.id, row.track, media); err != nil {
			return fmt.Errorf("track %q: %w", row.track.Name, err)
		}
	}
	return nil
}

func (s *Store) loadEvents(ctx context.Context, p *timeline.Project, trackID int64, track *timeline.Track, media map[int64]*timeline.Media) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start, length, mute,
            fade_in_length, fade_in_curve, fade_in_gain, fade_in_reciprocal, fade_in_transition,
            fade_out_length, fade_out_curve, fade_out_gain, fade_out_reciprocal, fade_out_transition
        FROM events WHERE track_id = ? ORDER BY position`, trackID)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	type eventRow struct {
		id    int64
		event *timeline.Event
	}
	var loaded []eventRow
	for rows.Next() {
		var (
			id                int64
			start, length     int64
			mute              bool
			inLen, outLen     int64
			inCurve, outCurve string
			inTr, outTr       sql.NullString
			e                 timeline.Event
		)
		if err := rows.Scan(&id, &start, &length, &mute,
			&inLen, &inCurve, &e.FadeIn.Gain, &e.FadeIn.ReciprocalCurve, &inTr,
			&outLen, &outCurve, &e.FadeOut.Gain, &e.FadeOut.ReciprocalCurve, &outTr,
		); err != nil {
			rows.Close()
			return fmt.Errorf("scan event: %w", err)
		}
		e.Start = timeline.Timecode(start)
		e.Length = timeline.Timecode(length)
		e.Mute = mute
		e.FadeIn.Length = timeline.Timecode(inLen)
		e.FadeIn.Curve = timeline.CurveKind(inCurve)
		e.FadeIn.Transition = lookupTransition(p, inTr)
		e.FadeOut.Length = timeline.Timecode(outLen)
		e.FadeOut.Curve = timeline.CurveKind(outCurve)
		e.FadeOut.Transition = lookupTransition(p, outTr)
		loaded = append(loaded, eventRow{id: id, event: &e})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, row := range loaded {
		if err := s.loadTakes(ctx, row.id, row.event, media); err != nil {
			return err
		}
		track.Add(row.event)
	}
	return nil
}

func (s *Store) loadTakes(ctx context.Context, eventID int64, e *timeline.Event, media map[int64]*timeline.Media) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT media_id, take_offset FROM takes WHERE event_id = ? ORDER BY position`, eventID)
	if err != nil {
		return fmt.Errorf("query takes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			mediaID sql.NullInt64
			offset  int64
		)
		if err := rows.Scan(&mediaID, &offset); err != nil {
			return fmt.Errorf("scan take: %w", err)
		}
		take := &timeline.Take{Offset: timeline.Timecode(offset)}
		if mediaID.Valid {
			take.Media = media[mediaID.Int64]
		}
		e.Takes = append(e.Takes, take)
	}
	return rows.Err()
}

func (s *Store) loadRegions(ctx context.Context, p *timeline.Project) error {
	rows, err := s.db.QueryContext(ctx, `SELECT start, length, name FROM regions ORDER BY position`)
	if err != nil {
		return fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			start, length int64
			name          sql.NullString
		)
		if err := rows.Scan(&start, &length, &name); err != nil {
			return fmt.Errorf("scan region: %w", err)
		}
		p.AddRegion(timeline.Region{Start: timeline.Timecode(start), Length: timeline.Timecode(length), Name: name.String})
	}
	return rows.Err()
}

func lookupTransition(p *timeline.Project, name sql.NullString) *timeline.Transition {
	if !name.Valid || name.String == "" {
		return nil
	}
	tr, ok := p.LookupTransition(name.String)
	if !ok {
		return p.AddTransition(name.String)
	}
	return tr
}

func transitionName(tr *timeline.Transition) any {
	if tr == nil {
		return nil
	}
	return nullableString(tr.Name)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
