package timeline

import "errors"

// ErrNoSelectedTrack is returned when no track is selected.
var ErrNoSelectedTrack = errors.New("no selected track")

// FirstSelectedTrack returns the topmost selected track, or nil.
func FirstSelectedTrack(tl Timeline) *Track {
	for _, track := range tl.Tracks() {
		if track.Selected {
			return track
		}
	}
	return nil
}

// AddRegionsForEvents drops a region over every event of the first selected
// track, named after the track. It returns the regions it added.
func AddRegionsForEvents(p *Project) ([]Region, error) {
	track := FirstSelectedTrack(p)
	if track == nil {
		return nil, ErrNoSelectedTrack
	}
	added := make([]Region, 0, track.Count())
	for _, e := range track.events {
		region := Region{Start: e.Start, Length: e.Length, Name: track.Name}
		p.AddRegion(region)
		added = append(added, region)
	}
	return added, nil
}
