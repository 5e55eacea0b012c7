package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/storefront/internal/models"
)

// OutputFormatter renders command results as text, JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Print writes data in the configured format. text renders the
// human-readable form and is only called for the text format.
func (f *OutputFormatter) Print(data any, text func(w io.Writer) error) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(f.Writer)
	}
}

func printSession(w io.Writer, s models.Session) error {
	if !s.IsAuthenticated || s.User == nil {
		fmt.Fprintln(w, "Not logged in")
	} else {
		fmt.Fprintf(w, "Logged in as %s <%s> (id %d)\n", s.User.Name, s.User.Email, s.User.ID)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Last error: %s\n", s.Error)
	}
	return nil
}

func printAccounts(w io.Writer, accounts []models.SessionUser) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", a.ID, a.Name, a.Email)
	}
	return tw.Flush()
}

func printMessages(w io.Writer, msgs []models.ContactMessage) error {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECEIVED\tSUBJECT\tFROM\tMESSAGE")
	for _, m := range msgs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s <%s>\t%s\n",
			m.ID, m.Timestamp.Local().Format("2006-01-02 15:04"), m.Subject.Label(), m.Name, m.Email, preview(m.Message, 60))
	}
	return tw.Flush()
}

// preview shortens s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
