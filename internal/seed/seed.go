// Package seed fills a development database with a demo project and its job openings.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/lws-dev/hiring/backend/internal/domain"
)

var requiredHeaders = []string{"title", "department", "description", "requirements"}

// LoadJobs reads job openings from a CSV file with a header row.
// Columns are matched by name; "url" is optional and unknown columns are ignored.
func LoadJobs(r io.Reader) ([]*domain.Job, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, header := range requiredHeaders {
		if _, ok := index[header]; !ok {
			return nil, fmt.Errorf("missing column %q", header)
		}
	}

	jobs := make([]*domain.Job, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		job := &domain.Job{
			Title:        field("title"),
			Department:   field("department"),
			Description:  field("description"),
			Requirements: field("requirements"),
		}
		if url := field("url"); url != "" {
			job.URL = &url
		}

		if slices.Contains([]string{job.Title, job.Department, job.Description, job.Requirements}, "") {
			slog.Warn("skipping incomplete job", "line", line)
			continue
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

type Repository interface {
	UpsertUser(email string, name string) (*domain.User, error)
	CreateProject(project *domain.Project) error
	CreateJob(job *domain.Job) error
}

type Demo struct {
	OwnerEmail         string
	OwnerName          string
	ProjectName        string
	ProjectDescription string
	Jobs               []*domain.Job
}

// Seed creates the owner, the project and every job. It stops at the first failure.
func Seed(repo Repository, demo *Demo) (*domain.Project, error) {
	owner, err := repo.UpsertUser(demo.OwnerEmail, demo.OwnerName)
	if err != nil {
		return nil, fmt.Errorf("create owner: %w", err)
	}

	project := &domain.Project{
		Name:        demo.ProjectName,
		Description: demo.ProjectDescription,
		CreatedBy:   owner.ID,
	}
	if err := repo.CreateProject(project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	for _, job := range demo.Jobs {
		job.ProjectID = project.ID
		job.CreatedBy = owner.ID
		if err := repo.CreateJob(job); err != nil {
			return nil, fmt.Errorf("create job %q: %w", job.Title, err)
		}
		slog.Info("seeded job", "id", job.ID, "title", job.Title)
	}

	return project, nil
}
