package sitecontent

import (
	"time"
)

// Kind is the inferred representation of a stored string.
type Kind string

const (
	KindEmpty            Kind = "empty"
	KindPlain            Kind = "plain"
	KindCompressedInline Kind = "compressed_inline"
	KindBlobPointer      Kind = "blob_pointer"
)

// Object path prefixes used by the offload gateway.
const (
	ImagePrefix = "images/"
	BlogPrefix  = "blogs/"
)

// StoredObject is an entry in object storage together with its public URL.
type StoredObject struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Table names of the relational store.
const (
	TableContactSubmissions    = "contact_submissions"
	TableNotifications         = "notifications"
	TableNewsletterSubscribers = "newsletter_subscribers"
	TableGallery               = "gallery"
	TableBlogs                 = "blogs"
	TableComments              = "comments"
	TablePages                 = "page_content"
	TableSettings              = "site_settings"
)

// Contact submission status constants.
const (
	ContactStatusUnread  = "unread"
	ContactStatusRead    = "read"
	ContactStatusReplied = "replied"
)

// ContactSubmission is a message sent through the contact form.
type ContactSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification type constants.
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Notification is an admin console notification.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscriber status constants.
const (
	SubscriberStatusPending      = "pending"
	SubscriberStatusActive       = "active"
	SubscriberStatusUnsubscribed = "unsubscribed"
)

// Subscriber is a newsletter subscriber.
type Subscriber struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

// GalleryImage is an image shown in the public gallery.
type GalleryImage struct {
	ID          string    `json:"id"`
	ImageURL    string    `json:"image_url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// Blog status constants.
const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
	BlogStatusScheduled = "scheduled"
)

// Blog is a blog post. Content holds resolved text when returned from the
// site service.
type Blog struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt,omitempty"`
	FeaturedImage string     `json:"featured_image,omitempty"`
	AuthorName    string     `json:"author_name,omitempty"`
	Category      string     `json:"category,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Status        string     `json:"status"`
	PublishDate   *time.Time `json:"publish_date,omitempty"`
	Views         int64      `json:"views"`
	ReadingTime   int        `json:"reading_time"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Comment status constants.
const (
	CommentStatusPending  = "pending"
	CommentStatusApproved = "approved"
	CommentStatusRejected = "rejected"
)

// Comment is a visitor comment on a blog post.
type Comment struct {
	ID          string    `json:"id"`
	BlogID      string    `json:"blog_id"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email,omitempty"`
	Content     string    `json:"content"`
	ParentID    string    `json:"parent_id,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page names edited from the admin console.
const (
	PageHome    = "home"
	PageAbout   = "about"
	PageContact = "contact"
)

// Page is the editable content of a public page. Content is free-form JSON
// whose shape depends on the page (hero, stats, team, ...).
type Page struct {
	ID        string         `json:"id"`
	PageName  string         `json:"page_name"`
	Content   map[string]any `json:"content"`
	UpdatedBy string         `json:"updated_by,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SiteSettings holds the organisation details and SEO defaults shown on
// every page. There is at most one row.
type SiteSettings struct {
	ID              string `json:"id,omitempty"`
	SiteName        string `json:"site_name"`
	SiteDescription string `json:"site_description"`
	SiteLogo        string `json:"site_logo,omitempty"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone,omitempty"`
	ContactAddress  string `json:"contact_address,omitempty"`
	SocialFacebook  string `json:"social_facebook,omitempty"`
	SocialTwitter   string `json:"social_twitter,omitempty"`
	SocialInstagram string `json:"social_instagram,omitempty"`
	SocialLinkedIn  string `json:"social_linkedin,omitempty"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	MetaKeywords    string `json:"meta_keywords,omitempty"`
}
