package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"yatube/app/models"
	"yatube/app/services"
)

// Group handles group create <slug> <title> [description].
func Group(ctx context.Context, env *Env, args []string) error {
	if len(args) < 3 || args[0] != "create" {
		return usage("group create <slug> <title> [description]")
	}
	s, err := openStore(env.Config.Database)
	if err != nil {
		return err
	}
	defer s.close()

	g := &models.Group{Slug: args[1], Title: args[2]}
	if len(args) > 3 {
		g.Description = strings.Join(args[3:], " ")
	}
	if err := services.NewSiteService(s.Groups, s.FlatPages).CreateGroup(ctx, g); err != nil {
		return err
	}
	env.printf("Group %q created with id %d\n", g.Slug, g.ID)
	return nil
}

// FlatPage handles flatpage set <url> <title> [file]. Content is read from
// file, or from standard input when file is "-" or missing.
func FlatPage(ctx context.Context, env *Env, args []string) error {
	if len(args) < 3 || args[0] != "set" {
		return usage("flatpage set <url> <title> [file]")
	}

	var content []byte
	var err error
	if len(args) > 3 && args[3] != "-" {
		content, err = os.ReadFile(args[3])
	} else {
		content, err = io.ReadAll(env.In)
	}
	if err != nil {
		return fmt.Errorf("failed to read page content: %w", err)
	}

	s, err := openStore(env.Config.Database)
	if err != nil {
		return err
	}
	defer s.close()

	page := &models.FlatPage{URL: args[1], Title: args[2], Content: string(content)}
	if err := services.NewSiteService(s.Groups, s.FlatPages).SaveFlatPage(ctx, page); err != nil {
		return err
	}
	env.printf("Flat page %s saved\n", page.URL)
	return nil
}

// User handles user create <username> <password> [email].
func User(ctx context.Context, env *Env, args []string) error {
	if len(args) < 3 || args[0] != "create" {
		return usage("user create <username> <password> [email]")
	}
	s, err := openStore(env.Config.Database)
	if err != nil {
		return err
	}
	defer s.close()

	u := &models.User{Username: args[1]}
	if len(args) > 3 {
		u.Email = args[3]
	}
	auth := services.NewAuthService(s.Users, s.Sessions, env.Config.Auth.BcryptCost, env.Config.Session.TTL)
	if err := auth.Register(ctx, u, args[2]); err != nil {
		return err
	}
	env.printf("User %q created with id %d\n", u.Username, u.ID)
	return nil
}
