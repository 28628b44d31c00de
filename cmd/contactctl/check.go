package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/contact-form-service/internal/form"
	"github.com/kjstillabower/contact-form-service/internal/models"
)

// errRejected is returned when the submission fails validation.
var errRejected = errors.New("submission rejected")

// checkResult is the JSON printed by check.
type checkResult struct {
	Values    models.ContactForm  `json:"values"`
	Errors    map[string]string   `json:"errors"`
	Phase     form.Phase          `json:"phase"`
	Submitted *models.ContactForm `json:"submitted"`
}

func newCheckCmd() *cobra.Command {
	var values models.ContactForm
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate one submission and print the resulting state as JSON",
		Example: `  contactctl check --first-name Bucky --last-name Barnes --email bucky@example.com
  contactctl check --first-name Moe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := runCheck(values)
			result := checkResult{
				Values:    state.Values,
				Errors:    state.VisibleErrors().Messages(),
				Phase:     state.Phase(),
				Submitted: state.Submitted,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if state.Submitted == nil {
				return errRejected
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&values.FirstName, "first-name", "", "first name (at least 5 characters)")
	cmd.Flags().StringVar(&values.LastName, "last-name", "", "last name (required)")
	cmd.Flags().StringVar(&values.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&values.Message, "message", "", "optional message")
	return cmd
}

// runCheck mounts a form, changes every field and submits once.
func runCheck(values models.ContactForm) form.State {
	events := make([]form.Event, 0, len(models.Fields)+1)
	for _, f := range models.Fields {
		events = append(events, form.Change(f, values.Get(f)))
	}
	events = append(events, form.Submit())
	return form.ReduceAll(form.New(), events...)
}
