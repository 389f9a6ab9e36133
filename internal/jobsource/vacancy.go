package jobsource

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Vacancy struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Description  string `json:"description,omitempty"`
	Employer     struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	KeySkills []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Snippet struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
}

// JobDescription renders the vacancy as plain text: title, description and
// key skills on their own lines.
func (v *Vacancy) JobDescription() (string, error) {
	parts := make([]string, 0, 4)
	if name := strings.TrimSpace(v.Name); name != "" {
		parts = append(parts, name)
	}

	body := v.Description
	if strings.TrimSpace(body) == "" {
		body = strings.TrimSpace(v.Snippet.Requirement + "\n" + v.Snippet.Responsibility)
	}
	if body != "" {
		text, err := HTMLToText(body)
		if err != nil {
			return "", fmt.Errorf("vacancy %s description: %w", v.ID, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(v.KeySkills) > 0 {
		skills := make([]string, 0, len(v.KeySkills))
		for _, s := range v.KeySkills {
			if name := strings.TrimSpace(s.Name); name != "" {
				skills = append(skills, name)
			}
		}
		if len(skills) > 0 {
			parts = append(parts, "Key skills: "+strings.Join(skills, ", "))
		}
	}

	return strings.Join(parts, "\n"), nil
}

const blockSelectors = "p, li, div, h1, h2, h3, h4, h5, h6, tr, ul, ol"

// HTMLToText drops markup and keeps block elements on separate lines.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return cleanWhitespace(doc.Text()), nil
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
