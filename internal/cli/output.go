package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rpggio/gitlink/internal/domain/project"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type fetchView struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

type authStatusView struct {
	ProjectID string `json:"projectId" yaml:"projectId"`
	Linked    bool   `json:"linked" yaml:"linked"`
}

type projectView struct {
	ID                     string     `json:"id" yaml:"id"`
	Title                  string     `json:"title" yaml:"title"`
	Description            string     `json:"description,omitempty" yaml:"description,omitempty"`
	WorktreePath           string     `json:"worktreePath" yaml:"worktreePath"`
	StateDirectory         string     `json:"stateDirectory" yaml:"stateDirectory"`
	PreferredKey           string     `json:"preferredKey" yaml:"preferredKey"`
	OkWithForcePush        bool       `json:"okWithForcePush" yaml:"okWithForcePush"`
	OmitCertificateCheck   bool       `json:"omitCertificateCheck" yaml:"omitCertificateCheck"`
	SnapshotLinesThreshold int        `json:"snapshotLinesThreshold" yaml:"snapshotLinesThreshold"`
	UseNewLocking          bool       `json:"useNewLocking" yaml:"useNewLocking"`
	IgnoreProjectSemaphore bool       `json:"ignoreProjectSemaphore" yaml:"ignoreProjectSemaphore"`
	SyncEnabled            bool       `json:"syncEnabled" yaml:"syncEnabled"`
	GitButlerDataLastFetch *fetchView `json:"gitbutlerDataLastFetch,omitempty" yaml:"gitbutlerDataLastFetch,omitempty"`
	ProjectDataLastFetch   *fetchView `json:"projectDataLastFetch,omitempty" yaml:"projectDataLastFetch,omitempty"`
	LastCodePush           string     `json:"lastCodePush,omitempty" yaml:"lastCodePush,omitempty"`
}

func newProjectView(p *project.Project) projectView {
	view := projectView{
		ID:                     p.ID,
		Title:                  p.Title,
		Description:            p.Description,
		WorktreePath:           p.WorktreePath(),
		StateDirectory:         p.StateDirectory(),
		PreferredKey:           p.PreferredKey().String(),
		OkWithForcePush:        p.OkWithForcePush(),
		OmitCertificateCheck:   p.OmitCertificateCheck(),
		SnapshotLinesThreshold: p.SnapshotLinesThreshold(),
		UseNewLocking:          p.UseNewLocking(),
		IgnoreProjectSemaphore: p.IgnoreProjectSemaphore(),
		SyncEnabled:            p.IsSyncEnabled(),
		GitButlerDataLastFetch: newFetchView(p.GitButlerDataLastFetch),
		ProjectDataLastFetch:   newFetchView(p.ProjectDataLastFetch),
	}
	if push := p.GitButlerCodePushState; push != nil {
		view.LastCodePush = push.CommitID
	}
	return view
}

func newFetchView(r *project.FetchResult) *fetchView {
	if r == nil {
		return nil
	}
	return &fetchView{Timestamp: r.Timestamp().UTC().Format(time.RFC3339), Error: r.Message()}
}

func writeObject(w io.Writer, format string, obj any) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		data, err := yaml.Marshal(obj)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(data))
		return err
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeProjectTable(w io.Writer, projects []*project.Project) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tPATH\tKEY\tSYNC")
	for _, p := range projects {
		s := p.Summarize()
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", s.ID, s.Title, s.Path, s.PreferredKey, s.SyncEnabled)
	}
	_ = tw.Flush()
}

func writeProjectDetails(w io.Writer, view projectView) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	rows := [][2]string{
		{"ID", view.ID},
		{"Title", view.Title},
		{"Worktree", view.WorktreePath},
		{"State directory", view.StateDirectory},
		{"Preferred key", view.PreferredKey},
		{"Force push", fmt.Sprint(view.OkWithForcePush)},
		{"Skip cert check", fmt.Sprint(view.OmitCertificateCheck)},
		{"Snapshot lines", fmt.Sprint(view.SnapshotLinesThreshold)},
		{"New locking", fmt.Sprint(view.UseNewLocking)},
		{"Ignore semaphore", fmt.Sprint(view.IgnoreProjectSemaphore)},
		{"Sync", fmt.Sprint(view.SyncEnabled)},
	}
	if view.Description != "" {
		rows = append(rows, [2]string{"Description", view.Description})
	}
	if view.LastCodePush != "" {
		rows = append(rows, [2]string{"Last code push", view.LastCodePush})
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
}
