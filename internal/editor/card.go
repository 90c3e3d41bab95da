package editor

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/Gyana491/contentflow/internal/api"
)

// MaxCharacters is LinkedIn's post length limit
const MaxCharacters = 3000

// CardInput is what the preview card shows
type CardInput struct {
	Content  string
	Profile  *api.LinkedInProfile
	Hashtags []string
	// Image is a filename or preview handle; empty means no image.
	Image    string
	Expanded bool
}

func cardName(p *api.LinkedInProfile) string {
	if p == nil {
		return "Your Name"
	}
	if p.Name != "" {
		return p.Name
	}
	if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
		return name
	}
	return "Your Name"
}

// RenderCard writes a LinkedIn-style preview of the post. Collapsed content
// shows two lines.
func RenderCard(w io.Writer, in CardInput) error {
	var b strings.Builder

	headline := "LinkedIn Member"
	if in.Profile != nil && in.Profile.Headline != "" {
		headline = in.Profile.Headline
	}
	fmt.Fprintln(&b, cardName(in.Profile))
	fmt.Fprintf(&b, "%s • 1st\n", headline)
	meta := "Just now"
	if in.Profile != nil && in.Profile.Location != "" {
		meta += " • " + in.Profile.Location
	}
	fmt.Fprintln(&b, meta)
	b.WriteString("\n")

	lines := strings.Split(in.Content, "\n")
	if !in.Expanded && len(lines) > 2 {
		fmt.Fprintf(&b, "%s\n%s ...see more\n", lines[0], lines[1])
	} else {
		b.WriteString(in.Content)
		b.WriteString("\n")
	}

	if len(in.Hashtags) > 0 {
		tags := make([]string, len(in.Hashtags))
		for i, t := range in.Hashtags {
			if !strings.HasPrefix(t, "#") {
				t = "#" + t
			}
			tags[i] = t
		}
		fmt.Fprintf(&b, "\n%s\n", strings.Join(tags, " "))
	}
	if in.Image != "" {
		fmt.Fprintf(&b, "\n[image: %s]\n", in.Image)
	}

	count := utf8.RuneCountInString(in.Content)
	fmt.Fprintf(&b, "\n%d/%d characters", count, MaxCharacters)
	if count > MaxCharacters {
		b.WriteString(" (over limit)")
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
