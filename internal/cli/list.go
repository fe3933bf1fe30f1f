package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoshiori/zen-downloader/internal/catalog"
	"github.com/yoshiori/zen-downloader/internal/config"
	"github.com/yoshiori/zen-downloader/internal/models"
	"github.com/yoshiori/zen-downloader/internal/util"
)

var listCmd = &cobra.Command{
	Use:   "list <course-or-chapter-url>",
	Short: "List the chapters of a course, or the movies of a chapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ref, err := catalog.ParseContentURL(args[0])
		if err != nil {
			return err
		}
		m, err := newSessionManager(cfg)
		if err != nil {
			return err
		}
		defer m.Close(context.Background())

		ctx := cmd.Context()
		client := catalog.New(m)

		if ref.ChapterID == "" {
			course, err := client.FetchCourse(ctx, ref.CourseID)
			if err != nil {
				return err
			}
			fmt.Println(course.Title)
			for _, ch := range course.Chapters {
				fmt.Printf("  %-10s %s\n", ch.ID, ch.Title)
			}
			return nil
		}

		chapter, err := client.FetchChapter(ctx, ref.CourseID, ref.ChapterID)
		if err != nil {
			return err
		}
		fmt.Printf("%s / %s\n", chapter.CourseTitle, chapter.Title)
		for _, s := range chapter.Sections {
			// Movies are marked; other section types are listed for context.
			marker := " "
			if s.ResourceType == models.ResourceTypeMovie {
				marker = "*"
			}
			fmt.Printf("  %s %-10s %8s  %s\n", marker, s.ID, util.FormatDuration(s.Duration), s.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
