package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"learning-circle/backend/internal/model"
	"learning-circle/backend/internal/repository"
)

// karmaSeedFile karma_activities.yaml 的结构
type karmaSeedFile struct {
	Activities []struct {
		Hashtag string `yaml:"hashtag"`
		Title   string `yaml:"title"`
		Karma   int    `yaml:"karma"`
	} `yaml:"activities"`
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "写入学习圈相关的 Karma 活动定义",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLDB(opts, func(env *migrateEnv) error {
				path := file
				if path == "" {
					path = env.cfg.Karma.SeedFile
				}
				activities, err := loadKarmaSeed(path)
				if err != nil {
					return err
				}

				repo := repository.NewRepository(env.db)
				for i := range activities {
					if err := repo.Karma.UpsertActivity(cmd.Context(), &activities[i]); err != nil {
						return fmt.Errorf("写入 karma 活动 %s 失败: %w", activities[i].Hashtag, err)
					}
					env.logger.Info("karma 活动已写入",
						zap.String("hashtag", activities[i].Hashtag),
						zap.Int("karma", activities[i].Karma))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "种子文件路径（默认 karma.seed_file）")
	return cmd
}

// loadKarmaSeed 读取并校验种子文件
func loadKarmaSeed(path string) ([]model.KarmaActivity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取种子文件失败: %w", err)
	}

	var seed karmaSeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("解析种子文件失败: %w", err)
	}

	seen := make(map[string]bool, len(seed.Activities))
	result := make([]model.KarmaActivity, 0, len(seed.Activities))
	for _, a := range seed.Activities {
		if a.Hashtag == "" || a.Karma <= 0 {
			return nil, fmt.Errorf("种子文件条目无效: hashtag=%q karma=%d", a.Hashtag, a.Karma)
		}
		if seen[a.Hashtag] {
			return nil, fmt.Errorf("种子文件中 hashtag 重复: %s", a.Hashtag)
		}
		seen[a.Hashtag] = true
		title := a.Title
		if title == "" {
			title = a.Hashtag
		}
		result = append(result, model.KarmaActivity{Hashtag: a.Hashtag, Title: title, Karma: a.Karma})
	}
	return result, nil
}
