package site

import (
	"context"
	"fmt"
	"strings"

	"github.com/tendant/site-content/pkg/sitecontent"
)

// GetSettings returns the site settings. Before the first save the
// settings are empty, with no ID.
func (s *Service) GetSettings(ctx context.Context) (*sitecontent.SiteSettings, error) {
	row, err := s.settingsRow(ctx)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &sitecontent.SiteSettings{}, nil
	}
	return settingsFromRow(row), nil
}

// SaveSettings updates the settings row, or inserts it on first save.
func (s *Service) SaveSettings(ctx context.Context, req sitecontent.SiteSettings) (*sitecontent.SiteSettings, error) {
	req.SiteName = strings.TrimSpace(req.SiteName)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if req.SiteName == "" {
		return nil, sitecontent.NewValidationError("site_name", "Site name is required")
	}
	if req.ContactEmail != "" && !ValidEmail(req.ContactEmail) {
		return nil, sitecontent.NewValidationError("contact_email", "Invalid contact email")
	}

	existing, err := s.settingsRow(ctx)
	if err != nil {
		return nil, err
	}

	set := sitecontent.Row{
		"site_name":        req.SiteName,
		"site_description": req.SiteDescription,
		"site_logo":        nullable(req.SiteLogo),
		"contact_email":    req.ContactEmail,
		"contact_phone":    nullable(req.ContactPhone),
		"contact_address":  nullable(req.ContactAddress),
		"social_facebook":  nullable(req.SocialFacebook),
		"social_twitter":   nullable(req.SocialTwitter),
		"social_instagram": nullable(req.SocialInstagram),
		"social_linkedin":  nullable(req.SocialLinkedIn),
		"meta_title":       nullable(req.MetaTitle),
		"meta_description": nullable(req.MetaDescription),
		"meta_keywords":    nullable(req.MetaKeywords),
		"updated_at":       s.now(),
	}
	if existing == nil {
		row, err := s.repo.Insert(ctx, sitecontent.TableSettings, set)
		if err != nil {
			return nil, fmt.Errorf("failed to store settings: %w", err)
		}
		return settingsFromRow(row), nil
	}

	id := stringOf(existing, "id")
	n, err := s.repo.Update(ctx, sitecontent.TableSettings, set, sitecontent.Filter{Column: "id", Value: id})
	if err := changed(n, err, "Settings"); err != nil {
		return nil, err
	}
	set["id"] = id
	return settingsFromRow(set), nil
}

func (s *Service) settingsRow(ctx context.Context) (sitecontent.Row, error) {
	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TableSettings,
		OrderBy: "created_at",
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func settingsFromRow(row sitecontent.Row) *sitecontent.SiteSettings {
	return &sitecontent.SiteSettings{
		ID:              stringOf(row, "id"),
		SiteName:        stringOf(row, "site_name"),
		SiteDescription: stringOf(row, "site_description"),
		SiteLogo:        stringOf(row, "site_logo"),
		ContactEmail:    stringOf(row, "contact_email"),
		ContactPhone:    stringOf(row, "contact_phone"),
		ContactAddress:  stringOf(row, "contact_address"),
		SocialFacebook:  stringOf(row, "social_facebook"),
		SocialTwitter:   stringOf(row, "social_twitter"),
		SocialInstagram: stringOf(row, "social_instagram"),
		SocialLinkedIn:  stringOf(row, "social_linkedin"),
		MetaTitle:       stringOf(row, "meta_title"),
		MetaDescription: stringOf(row, "meta_description"),
		MetaKeywords:    stringOf(row, "meta_keywords"),
	}
}
