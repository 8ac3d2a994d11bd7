package store

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"mytown-issues/models"

	"gopkg.in/yaml.v3"
)

//go:embed seed/issues.yaml
var defaultSeed []byte

type seedFile struct {
	Issues []seedIssue `yaml:"issues"`
}

type seedIssue struct {
	models.Issue `yaml:",inline"`
	Date         string `yaml:"date"`
}

// DefaultSeed returns the bundled sample issues.
func DefaultSeed() ([]models.Issue, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeedFile reads seed issues from a YAML file. An empty path yields the
// bundled sample issues.
func LoadSeedFile(path string) ([]models.Issue, error) {
	if path == "" {
		return DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// LoadSeed decodes and validates seed issues. Labels are canonicalised and
// dates use the 2006-01-02 layout.
func LoadSeed(r io.Reader) ([]models.Issue, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	issues := make([]models.Issue, 0, len(file.Issues))
	for n, s := range file.Issues {
		issue := s.Issue
		var err error
		if issue.Category, err = models.ParseCategory(string(issue.Category)); err != nil {
			return nil, fmt.Errorf("seed issue %d: %w", n, err)
		}
		if issue.Priority, err = models.ParsePriority(string(issue.Priority)); err != nil {
			return nil, fmt.Errorf("seed issue %d: %w", n, err)
		}
		if issue.Status != "" {
			if issue.Status, err = models.ParseStatus(string(issue.Status)); err != nil {
				return nil, fmt.Errorf("seed issue %d: %w", n, err)
			}
		}
		if s.Date != "" {
			if issue.CreatedAt, err = time.Parse(time.DateOnly, s.Date); err != nil {
				return nil, fmt.Errorf("seed issue %d: date: %w", n, err)
			}
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// Seed adds issues so that they iterate in the given order. Issues whose id is
// already present are skipped, which makes reseeding a durable store safe.
func Seed(ctx context.Context, st IssueStore, issues []models.Issue) (int, error) {
	added := 0
	for i := len(issues) - 1; i >= 0; i-- {
		_, err := st.Add(ctx, issues[i])
		if errors.Is(err, ErrDuplicateID) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
