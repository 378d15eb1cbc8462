package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"MoriTags/internal/auth"
	"MoriTags/internal/customtag"
	log "MoriTags/internal/log"
	"MoriTags/internal/models"
	"MoriTags/internal/selection"
	"MoriTags/internal/tag"
	"MoriTags/internal/workspace"
)

// writeClipboard 写入系统剪贴板
var writeClipboard = clipboard.WriteAll

// runFunc 在恢复好的工作区上执行的命令体
type runFunc func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error

// withWorkspace 打开会话与工作区；persist 为 true 时命令成功后写回选择
func withWorkspace(persist bool, fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		w := s.Open(ctx)
		if err := fn(ctx, cmd, w); err != nil {
			return err
		}
		if persist {
			return s.Persist(w)
		}
		return nil
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %s", arg)
	}
	return id, nil
}

// requireNames 拒绝空白标签名
func requireNames(cmd *cobra.Command, args []string) error {
	for _, name := range args {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("tag name must not be blank")
		}
	}
	return nil
}

func printSelection(out io.Writer, s selection.Selection) {
	if s.Len() == 0 {
		fmt.Fprintln(out, "(empty selection)")
		return
	}
	fmt.Fprintf(out, "%d selected: %s\n", s.Len(), s.ToPromptString())
}

func tagsCmd() *cobra.Command {
	var (
		category string
		search   string
		limit    int
		offset   int
	)

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags (system catalog followed by your custom tags)",
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			vocab, err := w.Vocabulary(ctx)
			if err != nil {
				return err
			}

			page := vocab.Filter(tag.Query{Category: category, Search: search, Limit: limit, Offset: offset})
			out := cmd.OutOrStdout()
			if len(page.Tags) == 0 {
				fmt.Fprintln(out, "No tags found.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			selected := w.Selection()
			for _, t := range page.Tags {
				mark := " "
				if selected.Contains(t.NameEN) {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s %d\t%s\t%s\t%s\n", mark, t.ID, t.NameEN, t.NameZH, t.Category)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if page.HasMore {
				fmt.Fprintf(out, "... %d of %d shown, use --offset %d for more\n", offset+len(page.Tags), page.Total, offset+len(page.Tags))
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&category, "category", "c", tag.CategoryAll, "category filter")
	cmd.Flags().StringVarP(&search, "search", "q", "", "search term (name_en or name_zh)")
	cmd.Flags().IntVarP(&limit, "limit", "n", tag.DefaultDisplayLimit, "number of tags to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip the first N matches")
	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories in display order",
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			vocab, err := w.Vocabulary(ctx)
			if err != nil {
				return err
			}
			for _, c := range vocab.Categories {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		}),
	}
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [name...]",
		Short: "Add a tag to the selection, or remove it if already selected",
		Args:  cobra.MatchAll(cobra.MinimumNArgs(1), requireNames),
		RunE: withWorkspace(true, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			for _, name := range cmd.Flags().Args() {
				w.Toggle(name)
			}
			printSelection(cmd.OutOrStdout(), w.Selection())
			return nil
		}),
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [name...]",
		Short: "Remove tags from the selection",
		Args:  cobra.MatchAll(cobra.MinimumNArgs(1), requireNames),
		RunE: withWorkspace(true, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			for _, name := range cmd.Flags().Args() {
				w.Remove(name)
			}
			printSelection(cmd.OutOrStdout(), w.Selection())
			return nil
		}),
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the selection",
		RunE: withWorkspace(true, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			printSelection(cmd.OutOrStdout(), w.Clear())
			return nil
		}),
	}
}

func promptCmd() *cobra.Command {
	var copyToClipboard bool

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the selection as a prompt string",
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			prompt := w.Prompt()
			fmt.Fprintln(cmd.OutOrStdout(), prompt)

			if copyToClipboard {
				// 复制失败不影响命令结果
				if err := writeClipboard(prompt); err != nil {
					log.Debugf("复制到剪贴板失败: %v", err)
					return nil
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard.")
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&copyToClipboard, "copy", false, "copy the prompt to the clipboard")
	return cmd
}

func saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save [name]",
		Short: "Save the selection as a collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			saved, err := w.SaveSelection(ctx, strings.Join(cmd.Flags().Args(), " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved collection %d: %s (%d tags)\n", saved.ID, saved.Name, saved.TagsCount)
			return nil
		}),
	}
}

func collectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List saved collections, newest first",
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			list, err := w.Collections(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No collections yet. Use 'moritags save' to create one.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, c := range list {
				fmt.Fprintf(tw, "%d\t%s\t%d tags\t%s\t%s\n",
					c.ID, c.Name, c.TagsCount, c.CreatedAt.Local().Format("2006-01-02 15:04"), models.StringValue(c.PreviewImageURL))
			}
			return tw.Flush()
		}),
	}
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [id]",
		Short: "Replace the selection with a collection's tags",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkspace(true, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			id, err := parseID(cmd.Flags().Arg(0))
			if err != nil {
				return err
			}
			s, err := w.LoadCollection(ctx, id)
			if err != nil {
				return err
			}
			printSelection(cmd.OutOrStdout(), s)
			return nil
		}),
	}
}

func deleteCollectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-collection [id]",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			id, err := parseID(cmd.Flags().Arg(0))
			if err != nil {
				return err
			}
			if err := w.DeleteCollection(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		}),
	}
}

func customCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Manage custom tags",
	}
	cmd.AddCommand(customListCmd(), customAddCmd(), customDeleteCmd())
	return cmd
}

func customListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your custom tags",
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			vocab, err := w.Vocabulary(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range vocab.Tags {
				if t.IsCustom {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.NameEN, t.NameZH, t.Category)
				}
			}
			return tw.Flush()
		}),
	}
}

func customAddCmd() *cobra.Command {
	var req customtag.AddRequest

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a custom tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			req.Name = strings.Join(cmd.Flags().Args(), " ")
			added, err := w.AddCustomTag(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Custom tag %d: %s [%s]\n", added.ID, added.Name, added.Category)
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.Category, "category", "", "category (default Custom)")
	cmd.Flags().StringVar(&req.NameZH, "zh", "", "Chinese name")
	return cmd
}

func customDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a custom tag and drop it from the selection",
		Args:  cobra.ExactArgs(1),
		RunE: withWorkspace(true, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			id, err := parseID(cmd.Flags().Arg(0))
			if err != nil {
				return err
			}
			if err := w.DeleteCustomTag(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		}),
	}
}

func loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in; your device's guest data stays on this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password") {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			identity, err := s.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", identity.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out; saved collections are kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: withWorkspace(false, func(ctx context.Context, cmd *cobra.Command, w *workspace.Workspace) error {
			identity, ok := w.State().Identity()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "guest")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d, %s)\n", identity.Username, identity.ID, identity.Role)
			return nil
		}),
	}
}

func settingsCmd() *cobra.Command {
	var req auth.SettingsRequest

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change your username and/or password",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			updated, err := s.UpdateSettings(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings updated successfully. Username: %s\n", updated.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.OldPassword, "old-password", "", "current password")
	cmd.Flags().StringVar(&req.NewUsername, "new-username", "", "new username")
	cmd.Flags().StringVar(&req.NewPassword, "new-password", "", "new password")
	return cmd
}
