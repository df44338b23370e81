package cmd

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/onboard/internal/checklist"
	"github.com/marcus/onboard/internal/config"
	"github.com/marcus/onboard/internal/models"
	"github.com/marcus/onboard/internal/output"
	"github.com/marcus/onboard/internal/store"
	"github.com/spf13/cobra"
)

// welcomeAnswers holds the first-run form values
type welcomeAnswers struct {
	Name     string
	Platform string
}

var welcomeCmd = &cobra.Command{
	Use:     "welcome",
	Short:   "First-run setup: your name and dev platform",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		platform, err := resolvePlatform(cmd)
		if err != nil {
			return err
		}
		answers := welcomeAnswers{Platform: string(platform)}

		p, err := openProgress(cmd)
		if err != nil {
			return err
		}
		defer p.finish(cmd)

		if name, _ := cmd.Flags().GetString("name"); name != "" {
			answers.Name = name
		} else {
			if current := p.store.State().UserName; checklist.IsOnboarded(current) {
				answers.Name = current
			}
			if err := buildWelcomeForm(&answers).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
		}

		if err := p.store.SetUserName(answers.Name); err != nil {
			return err
		}
		if answers.Platform != string(platform) {
			if err := config.Update(func(c *config.Config) error {
				c.Platform = answers.Platform
				return nil
			}); err != nil {
				output.Warning("could not save platform: %v", err)
			}
		}

		output.Success("欢迎，%s！", p.store.State().UserName)
		p.warnLocalOnly()
		output.Info("Run `onboard next` to see where to start.")
		return nil
	},
}

// buildWelcomeForm constructs the huh form bound to a
func buildWelcomeForm(a *welcomeAnswers) *huh.Form {
	platformOptions := []huh.Option[string]{
		huh.NewOption("PC", string(models.PlatformPC)),
		huh.NewOption("iOS", string(models.PlatformIOS)),
		huh.NewOption("Android", string(models.PlatformAndroid)),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("你的名字").
				Value(&a.Name).
				Placeholder(checklist.DefaultUserName).
				CharLimit(checklist.MaxUserNameLength).
				Validate(validateWelcomeName),
			huh.NewSelect[string]().
				Title("Dev platform").
				Description("Which dev guide to follow").
				Options(platformOptions...).
				Value(&a.Platform),
		).Title("Welcome aboard"),
	)
	form.WithTheme(huh.ThemeDracula())
	return form
}

func validateWelcomeName(s string) error {
	if _, ok := checklist.ValidateUserName(s); !ok {
		return store.ErrInvalidName
	}
	if strings.TrimSpace(s) == checklist.DefaultUserName {
		return errors.New("please enter your own name")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(welcomeCmd)
	welcomeCmd.Flags().String("name", "", "Set the name without the interactive form")
}
