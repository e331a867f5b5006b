package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yuqie6/GitQuest/internal/bootstrap"
	"github.com/yuqie6/GitQuest/internal/dto"
	"github.com/yuqie6/GitQuest/internal/model"
	"github.com/yuqie6/GitQuest/internal/pkg/buildinfo"
	"github.com/yuqie6/GitQuest/internal/service"
)

var (
	cfgFile string
	asJSON  bool
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "gitquest",
		Short:   "GitQuest - 把代码活动变成连续打卡、挑战与经验等级",
		Version: buildinfo.String(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()

			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				slog.Error("初始化失败", "error", err)
				os.Exit(1)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "以 JSON 输出")

	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(challengesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(xpCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// usersOrConfigured 命令行未指定时使用配置中的用户
func usersOrConfigured(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return core.Cfg.Sync.Users
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// syncCmd 立即同步
func syncCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sync [user...]",
		Short: "立即同步一次",
		Run: func(cmd *cobra.Command, args []string) {
			if err := core.RequireWritable(); err != nil {
				fmt.Printf("❌ %v\n", err)
				os.Exit(1)
			}
			users := usersOrConfigured(args)
			if len(users) == 0 {
				fmt.Println("⚠️  未指定用户，请传入用户名或在 config.yaml 的 sync.users 中配置")
				os.Exit(1)
			}

			failed := false
			for _, user := range users {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				res, err := core.Services.Sync.Sync(ctx, user)
				cancel()
				if err != nil {
					failed = true
					fmt.Printf("❌ %s 同步失败: %v\n", user, err)
					continue
				}
				if asJSON {
					printJSON(dto.NewSyncResponse(res))
					continue
				}
				printSyncResult(res)
			}
			if failed {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "单个用户的同步超时")
	return cmd
}

func printSyncResult(res *service.SyncResult) {
	fmt.Printf("🔄 %s: %s\n", res.UserID, res.Message())
	if res.XPAwarded > 0 {
		fmt.Printf("  • 获得经验: +%d\n", res.XPAwarded)
	}
	for _, n := range res.Notifications {
		fmt.Printf("  • %s\n", describeNotification(n))
	}
	if d := res.Dashboard; d != nil && d.Diff.HasComparison() {
		fmt.Printf("  • 对比 %s: commits %+d, prs %+d, reviews %+d, issues %+d\n",
			d.Diff.ComparisonDate, d.Diff.Commits, d.Diff.PullRequests, d.Diff.Reviews, d.Diff.Issues)
	}
}

func describeNotification(n model.Notification) string {
	switch v := n.(type) {
	case model.XPGained:
		return fmt.Sprintf("✨ +%d XP（%s），累计 %d", v.Amount, v.Source, v.Total)
	case model.LevelChanged:
		return fmt.Sprintf("🎉 等级 %d → %d", v.OldLevel, v.NewLevel)
	case model.StreakMilestone:
		return fmt.Sprintf("🔥 连续活跃 %d 天", v.Milestone)
	case model.ChallengeCompleted:
		return fmt.Sprintf("🏆 完成%s挑战 %s，奖励 %d XP", typeLabel(v.Type), v.Metric, v.RewardXP)
	case model.ChallengeFailed:
		return fmt.Sprintf("⌛ %s挑战 %s 未完成（%d/%d）", typeLabel(v.Type), v.Metric, v.CurrentValue, v.TargetValue)
	}
	return string(n.Kind())
}

func typeLabel(t model.ChallengeType) string {
	if t == model.ChallengeWeekly {
		return "每周"
	}
	return "每日"
}

// statusCmd 查看当前状态
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [user...]",
		Short: "查看等级、连续活跃与挑战概况",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			for _, user := range usersOrConfigured(args) {
				dash, err := core.Services.Sync.Dashboard(ctx, user)
				if errors.Is(err, service.ErrNoData) {
					fmt.Printf("📭 %s: %v\n", user, err)
					continue
				}
				if err != nil {
					fmt.Printf("❌ %s 读取失败: %v\n", user, err)
					os.Exit(1)
				}
				st := dto.NewStatus(dash)
				if asJSON {
					printJSON(st)
					continue
				}
				fmt.Printf("👤 %s（数据日期 %s）\n", st.UserID, st.AsOf)
				fmt.Println("═══════════════════════════════════════")
				if st.NextLevelXP < 0 {
					fmt.Printf("  • 等级: Lv.%d（满级），经验 %d\n", st.Level, st.TotalXP)
				} else {
					fmt.Printf("  • 等级: Lv.%d，经验 %d / %d\n", st.Level, st.TotalXP, st.NextLevelXP)
				}
				fmt.Printf("  • 连续活跃: %d 天（最长 %d 天）\n", st.Streak, st.Longest)
				fmt.Printf("  • 进行中挑战: %d\n", st.Active)
				if dash.Progress.LastSyncedAt != nil {
					age := time.Since(*dash.Progress.LastSyncedAt).Round(time.Minute)
					stale := ""
					if age > core.CacheTTL() {
						stale = "（建议同步）"
					}
					fmt.Printf("  • 上次同步: %s 前%s\n", age, stale)
				}
			}
		},
	}
}

// challengesCmd 列出挑战
func challengesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "challenges <user>",
		Short: "列出最近的挑战",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			list, err := core.Services.Sync.Challenges(context.Background(), args[0], limit)
			if err != nil {
				fmt.Printf("❌ 读取挑战失败: %v\n", err)
				os.Exit(1)
			}
			if asJSON {
				printJSON(dto.ChallengeListDTO{UserID: args[0], Challenges: list})
				return
			}
			if len(list) == 0 {
				fmt.Println("📭 还没有挑战，先执行 'gitquest sync'")
				return
			}
			fmt.Printf("%-8s %-8s %-10s %-12s %-6s %s\n", "周期", "指标", "状态", "进度", "奖励", "截止")
			for _, c := range list {
				fmt.Printf("%-8s %-8s %-10s %-12s %-6d %s\n",
					c.Type, c.Metric, c.Status,
					fmt.Sprintf("%d/%d %s", c.CurrentValue, c.TargetValue, progressBar(c.Progress)),
					c.RewardXP, c.EndDate.Local().Format("01-02 15:04"))
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "条数")
	return cmd
}

func progressBar(p float64) string {
	const width = 5
	filled := int(p * width)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// historyCmd 最近快照
func historyCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history <user>",
		Short: "查看最近的活动快照",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			list, err := core.Services.Sync.Snapshots(context.Background(), args[0], days)
			if err != nil {
				fmt.Printf("❌ 读取快照失败: %v\n", err)
				os.Exit(1)
			}
			out := dto.NewSnapshots(list)
			if asJSON {
				printJSON(dto.SnapshotListDTO{UserID: args[0], Days: days, Snapshots: out})
				return
			}
			fmt.Printf("%-12s %8s %6s %8s %7s %6s\n", "日期", "commits", "prs", "reviews", "issues", "stars")
			for _, s := range out {
				fmt.Printf("%-12s %8d %6d %8d %7d %6d\n", s.Date, s.Commits, s.PullRequests, s.Reviews, s.Issues, s.Stars)
			}
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 14, "天数")
	return cmd
}

// xpCmd 经验流水
func xpCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "xp <user>",
		Short: "查看经验流水",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			list, err := core.Services.Sync.XPHistory(context.Background(), args[0], limit)
			if err != nil {
				fmt.Printf("❌ 读取经验流水失败: %v\n", err)
				os.Exit(1)
			}
			out := dto.NewXPEntries(list)
			if asJSON {
				printJSON(dto.XPHistoryDTO{UserID: args[0], Entries: out})
				return
			}
			for _, e := range out {
				fmt.Printf("%s  +%-5d %-10s %s\n", e.Day, e.Amount, e.Source, e.Reference)
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "条数")
	return cmd
}
