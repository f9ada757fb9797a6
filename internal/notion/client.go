// Package notion mirrors submitted applications into a Notion database.
package notion

import (
	"context"
	"strings"

	gnt "github.com/dstotijn/go-notion"
	"github.com/strove-app/strove/internal/models"
)

type Client struct {
	api        *gnt.Client
	databaseID string
}

func New(token, databaseID string, opts ...gnt.ClientOption) *Client {
	return &Client{
		api:        gnt.NewClient(token, opts...),
		databaseID: databaseID,
	}
}

// Ping runs a one-row query to check the database is shared with the integration.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.QueryDatabase(ctx, c.databaseID, &gnt.DatabaseQuery{
		PageSize: 1,
	})
	return err
}

// ExportApplication creates a row for app and returns the page id. app.Posting
// must be loaded.
func (c *Client) ExportApplication(ctx context.Context, app *models.Application) (string, error) {
	props := buildApplicationProperties(app)
	page, err := c.api.CreatePage(ctx, gnt.CreatePageParams{
		ParentType:             gnt.ParentTypeDatabase,
		ParentID:               c.databaseID,
		DatabasePageProperties: &props,
	})
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

// UpdateApplicationStatus sets the Status select of an exported row.
func (c *Client) UpdateApplicationStatus(ctx context.Context, pageID, status string) error {
	_, err := c.api.UpdatePage(ctx, pageID, gnt.UpdatePageParams{
		DatabasePageProperties: gnt.DatabasePageProperties{
			"Status": statusProperty(status),
		},
	})
	return err
}

// richText builds a Notion rich_text slice from a plain string.
func richText(s string) []gnt.RichText {
	if s == "" {
		return nil
	}
	return []gnt.RichText{
		{
			Text: &gnt.Text{
				Content: s,
			},
		},
	}
}

func statusProperty(status string) gnt.DatabasePageProperty {
	return gnt.DatabasePageProperty{
		Select: &gnt.SelectOptions{Name: StatusLabel(status)},
	}
}

// StatusLabel turns "under_review" into "Under Review".
func StatusLabel(status string) string {
	words := strings.Fields(strings.ReplaceAll(status, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func buildApplicationProperties(app *models.Application) gnt.DatabasePageProperties {
	p := app.Posting
	props := gnt.DatabasePageProperties{}

	// Position is the database's title property
	props["Position"] = gnt.DatabasePageProperty{
		Title: richText(p.Title),
	}
	if p.Professor != "" {
		props["Professor"] = gnt.DatabasePageProperty{
			RichText: richText(p.Professor),
		}
	}
	if p.ProfessorEmail != "" {
		email := p.ProfessorEmail
		props["Professor Email"] = gnt.DatabasePageProperty{
			Email: &email,
		}
	}
	if p.Department != "" {
		props["Department"] = gnt.DatabasePageProperty{
			Select: &gnt.SelectOptions{Name: p.Department},
		}
	}
	if p.LabName != "" {
		props["Lab"] = gnt.DatabasePageProperty{
			RichText: richText(p.LabName),
		}
	}
	if app.Status != "" {
		props["Status"] = statusProperty(app.Status)
	}
	if !app.CreatedAt.IsZero() {
		props["Applied"] = gnt.DatabasePageProperty{
			Date: &gnt.Date{Start: gnt.NewDateTime(app.CreatedAt, false)},
		}
	}
	if !p.Deadline.IsZero() {
		props["Deadline"] = gnt.DatabasePageProperty{
			Date: &gnt.Date{Start: gnt.NewDateTime(p.Deadline, false)},
		}
	}
	return props
}
