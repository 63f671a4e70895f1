package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eventbatch/internal/config"
	"eventbatch/internal/projectdb"
	"eventbatch/internal/timeline"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Create and edit the timeline project",
	}
	projectCmd.AddCommand(newProjectInitCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))
	projectCmd.AddCommand(newProjectAddTrackCommand(ctx))
	projectCmd.AddCommand(newProjectAddEventCommand(ctx))
	projectCmd.AddCommand(newProjectSelectCommand(ctx))
	projectCmd.AddCommand(newProjectSelectionCommand(ctx))
	projectCmd.AddCommand(newProjectAddTransitionCommand(ctx))
	return projectCmd
}

func newProjectInitCommand(ctx *commandContext) *cobra.Command {
	var rate float64
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty project file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := ctx.projectPath()
			if err != nil {
				return err
			}
			store, err := projectdb.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Lock(); err != nil {
				return err
			}

			_, err = store.Load(cmd.Context())
			switch {
			case err == nil && !force:
				return fmt.Errorf("project already exists at %s (use --force to replace it)", path)
			case err != nil && !errors.Is(err, projectdb.ErrNoProject):
				return err
			}
			if !cmd.Flags().Changed("rate") {
				rate = cfg.Render.FrameRate
			}
			if err := store.Save(cmd.Context(), timeline.NewProject(rate)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", path)
			return nil
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", timeline.DefaultFrameRate, "Frame rate (defaults to render.frame_rate)")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing project")
	return cmd
}

type eventView struct {
	Index   int    `json:"index"`
	Start   string `json:"start"`
	Length  string `json:"length"`
	Offset  string `json:"offset"`
	Media   string `json:"media,omitempty"`
	Offline bool   `json:"offline,omitempty"`
	FadeIn  string `json:"fade_in"`
	FadeOut string `json:"fade_out"`
	Mute    bool   `json:"mute,omitempty"`
}

type trackView struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Selected bool        `json:"selected"`
	Mute     bool        `json:"mute"`
	Events   []eventView `json:"events"`
}

type projectView struct {
	Path      string      `json:"path"`
	FrameRate float64     `json:"frame_rate"`
	Length    string      `json:"length"`
	Selection [2]string   `json:"selection"`
	Tracks    []trackView `json:"tracks"`
	Regions   int         `json:"regions"`
}

func newProjectView(path string, p *timeline.Project) projectView {
	rate := p.FrameRate()
	start, length := p.Selection()
	view := projectView{
		Path:      path,
		FrameRate: rate,
		Length:    p.Length().Format(rate),
		Selection: [2]string{start.Format(rate), length.Format(rate)},
		Regions:   len(p.Regions()),
	}
	for _, track := range p.Tracks() {
		tv := trackView{Name: track.Name, Kind: string(track.Kind), Selected: track.Selected, Mute: track.Mute}
		for i, e := range track.Events() {
			ev := eventView{
				Index:   i,
				Start:   e.Start.Format(rate),
				Length:  e.Length.Format(rate),
				FadeIn:  e.FadeIn.Length.Format(rate),
				FadeOut: e.FadeOut.Length.Format(rate),
				Mute:    e.Mute,
			}
			if take := e.ActiveTake(); take != nil {
				ev.Offset = take.Offset.Format(rate)
				ev.Media = take.MediaPath()
				ev.Offline = take.Media != nil && take.Media.Offline
			}
			tv.Events = append(tv.Events, ev)
		}
		view.Tracks = append(view.Tracks, tv)
	}
	return view
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show tracks and events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, false, func(s *session) error {
				view := newProjectView(s.store.Path(), s.project)
				if asJSON {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Project:   %s\n", view.Path)
				fmt.Fprintf(out, "Rate:      %g fps\n", view.FrameRate)
				fmt.Fprintf(out, "Length:    %s\n", view.Length)
				fmt.Fprintf(out, "Selection: %s +%s\n", view.Selection[0], view.Selection[1])
				fmt.Fprintf(out, "Regions:   %d\n", view.Regions)

				headers := []string{"Track", "Kind", "Sel", "Mute", "#", "Start", "Length", "Offset", "Fades", "Media"}
				var rows [][]string
				for _, track := range view.Tracks {
					head := []string{track.Name, track.Kind, yesNo(track.Selected), yesNo(track.Mute)}
					if len(track.Events) == 0 {
						rows = append(rows, append(head, "", "", "", "", "", ""))
						continue
					}
					for i, ev := range track.Events {
						row := []string{"", "", "", ""}
						if i == 0 {
							row = head
						}
						media := ev.Media
						if ev.Offline {
							media += " (offline)"
						}
						if ev.Mute {
							media += " (muted)"
						}
						rows = append(rows, append(append([]string(nil), row...),
							strconv.Itoa(ev.Index), ev.Start, ev.Length, ev.Offset, ev.FadeIn+"/"+ev.FadeOut, media))
					}
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newProjectAddTrackCommand(ctx *commandContext) *cobra.Command {
	var kindValue string
	var unselected, muted bool
	cmd := &cobra.Command{
		Use:   "add-track <name>",
		Short: "Append a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := timeline.ParseMediaKind(kindValue)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, true, func(s *session) error {
				name := strings.TrimSpace(args[0])
				if _, err := findTrack(s.project, name); err == nil {
					return fmt.Errorf("track %q already exists", name)
				}
				track := s.project.AddTrack(kind, name)
				track.Selected = !unselected
				track.Mute = muted
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s track %q\n", kind, name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindValue, "kind", "video", "Track kind: video or audio")
	cmd.Flags().BoolVar(&unselected, "unselected", false, "Leave the track unselected")
	cmd.Flags().BoolVar(&muted, "mute", false, "Mute the track")
	return cmd
}

func newProjectAddEventCommand(ctx *commandContext) *cobra.Command {
	var start, length, offset, fadeIn, fadeOut, transition string
	var mute bool
	cmd := &cobra.Command{
		Use:   "add-event <track> <media>",
		Short: "Place media on a track",
		Long: `Place a media file on a track. Times accept frames ("120f"), clock time
("00:01:02.500"), or seconds ("62.5"). The length defaults to the rest of the
media after the offset.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, true, func(s *session) error {
				p := s.project
				track, err := findTrack(p, args[0])
				if err != nil {
					return err
				}
				rate := p.FrameRate()
				startTC, err := timeline.ParseTimecode(start, rate)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				offsetTC, err := optionalTimecode(offset, rate)
				if err != nil {
					return fmt.Errorf("--offset: %w", err)
				}
				fadeInTC, err := optionalTimecode(fadeIn, rate)
				if err != nil {
					return fmt.Errorf("--fade-in: %w", err)
				}
				fadeOutTC, err := optionalTimecode(fadeOut, rate)
				if err != nil {
					return fmt.Errorf("--fade-out: %w", err)
				}

				mediaPath, err := expandMediaPath(args[1])
				if err != nil {
					return err
				}
				media, err := p.OpenMedia(cmd.Context(), mediaPath)
				if err != nil {
					return err
				}
				if offsetTC >= media.Length {
					return fmt.Errorf("offset %s is past the end of %s (%s)", offsetTC.Format(rate), mediaPath, media.Length.Format(rate))
				}
				lengthTC := media.Length - offsetTC
				if strings.TrimSpace(length) != "" {
					if lengthTC, err = timeline.ParseTimecode(length, rate); err != nil {
						return fmt.Errorf("--length: %w", err)
					}
				}
				if lengthTC <= 0 {
					return errors.New("event length must be positive")
				}

				event := timeline.NewEvent(startTC, lengthTC)
				event.Mute = mute
				event.FadeIn.Length = fadeInTC
				event.FadeOut.Length = fadeOutTC
				if name := strings.TrimSpace(transition); name != "" {
					tr, ok := p.LookupTransition(name)
					if !ok {
						return fmt.Errorf("transition %q is not in the catalog; add it with \"project add-transition\"", name)
					}
					event.FadeIn.Transition = tr
					event.FadeOut.Transition = tr
				}
				event.AddTake(&timeline.Take{Media: media, Offset: offsetTC})
				track.Add(event)

				fmt.Fprintf(cmd.OutOrStdout(), "Added event %d on %q at %s (+%s)\n",
					track.Index(event), track.Name, startTC.Format(rate), lengthTC.Format(rate))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "0f", "Timeline position")
	cmd.Flags().StringVar(&length, "length", "", "Event length")
	cmd.Flags().StringVar(&offset, "offset", "", "Take offset into the media")
	cmd.Flags().StringVar(&fadeIn, "fade-in", "", "Fade-in length")
	cmd.Flags().StringVar(&fadeOut, "fade-out", "", "Fade-out length")
	cmd.Flags().StringVar(&transition, "transition", "", "Transition applied to both fades")
	cmd.Flags().BoolVar(&mute, "mute", false, "Mute the event")
	return cmd
}

func newProjectSelectCommand(ctx *commandContext) *cobra.Command {
	var only, clearAll bool
	cmd := &cobra.Command{
		Use:   "select <track>...",
		Short: "Select tracks for batch rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !clearAll {
				return errors.New("name at least one track or pass --clear")
			}
			return ctx.withSession(cmd, true, func(s *session) error {
				if only || clearAll {
					for _, track := range s.project.Tracks() {
						track.Selected = false
					}
				}
				for _, name := range args {
					track, err := findTrack(s.project, name)
					if err != nil {
						return err
					}
					track.Selected = true
				}
				var selected []string
				for _, track := range s.project.Tracks() {
					if track.Selected {
						selected = append(selected, track.Name)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected tracks: %s\n", strings.Join(selected, ", "))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&only, "only", false, "Deselect every other track")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Deselect all tracks first")
	return cmd
}

func newProjectSelectionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "selection <start> <length>",
		Short: "Set the timeline selection used by selection renders",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, true, func(s *session) error {
				rate := s.project.FrameRate()
				start, err := timeline.ParseTimecode(args[0], rate)
				if err != nil {
					return err
				}
				length, err := timeline.ParseTimecode(args[1], rate)
				if err != nil {
					return err
				}
				s.project.SetSelection(start, length)
				fmt.Fprintf(cmd.OutOrStdout(), "Selection: %s +%s\n", start.Format(rate), length.Format(rate))
				return nil
			})
		},
	}
}

func newProjectAddTransitionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add-transition <name>",
		Short: "Add a transition to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, true, func(s *session) error {
				tr := s.project.AddTransition(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Transition %q available\n", tr.Name)
				return nil
			})
		},
	}
}

func findTrack(p *timeline.Project, name string) (*timeline.Track, error) {
	name = strings.TrimSpace(name)
	for _, track := range p.Tracks() {
		if track.Name == name {
			return track, nil
		}
	}
	return nil, fmt.Errorf("track %q not found", name)
}

func optionalTimecode(value string, rate float64) (timeline.Timecode, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return timeline.ParseTimecode(value, rate)
}

// expandMediaPath resolves "~" and relative media arguments.
func expandMediaPath(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("media path is empty")
	}
	return config.ExpandPath(value)
}
