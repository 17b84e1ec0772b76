package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/tradelens/internal/exclusion"
	"github.com/wonny/tradelens/internal/report"
)

// exclusionsCmd represents the exclusions command
var exclusionsCmd = &cobra.Command{
	Use:   "exclusions",
	Short: "피처 제외 목록 관리",
	Long: `거래 로그 파일별로 피처 분석에서 제외할 컬럼을 저장합니다.

저장소는 EXCLUSION_BACKEND (file, redis, postgres) 로 선택합니다.

Example:
  go run ./cmd/quant exclusions show trades.csv
  go run ./cmd/quant exclusions set trades.csv atr volume
  go run ./cmd/quant exclusions add trades.csv rsi
  go run ./cmd/quant exclusions remove trades.csv atr
  go run ./cmd/quant exclusions clear trades.csv`,
}

var exclusionsShowCmd = &cobra.Command{
	Use:   "show <trades-file>",
	Short: "저장된 제외 목록 조회",
	Args:  cobra.ExactArgs(1),
	RunE:  runExclusionsShow,
}

var exclusionsSetCmd = &cobra.Command{
	Use:   "set <trades-file> [column...]",
	Short: "제외 목록 교체",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExclusionsSet,
}

var exclusionsAddCmd = &cobra.Command{
	Use:   "add <trades-file> <column...>",
	Short: "제외 컬럼 추가",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runExclusionsAdd,
}

var exclusionsRemoveCmd = &cobra.Command{
	Use:   "remove <trades-file> <column...>",
	Short: "제외 컬럼 해제",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runExclusionsRemove,
}

var exclusionsClearCmd = &cobra.Command{
	Use:   "clear <trades-file>",
	Short: "제외 목록 삭제",
	Args:  cobra.ExactArgs(1),
	RunE:  runExclusionsClear,
}

func init() {
	rootCmd.AddCommand(exclusionsCmd)
	exclusionsCmd.AddCommand(
		exclusionsShowCmd,
		exclusionsSetCmd,
		exclusionsAddCmd,
		exclusionsRemoveCmd,
		exclusionsClearCmd,
	)
}

// withSource opens the app and resolves the trades file path used as the storage identity
func withSource(cmd *cobra.Command, path string, fn func(a *app, source string) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	source, err := exclusion.Resolve(path)
	if err != nil {
		return err
	}
	return fn(a, source)
}

func runExclusionsShow(cmd *cobra.Command, args []string) error {
	return withSource(cmd, args[0], func(a *app, source string) error {
		names, err := a.backend.Exclusions(cmd.Context(), source)
		if err != nil {
			return err
		}
		return showExclusions(source, names)
	})
}

func runExclusionsSet(cmd *cobra.Command, args []string) error {
	return withSource(cmd, args[0], func(a *app, source string) error {
		names := exclusion.NewSet(args[1:]...).Sorted()
		if err := a.backend.SaveExclusions(cmd.Context(), source, names); err != nil {
			return err
		}
		return showExclusions(source, names)
	})
}

func runExclusionsAdd(cmd *cobra.Command, args []string) error {
	return withSource(cmd, args[0], func(a *app, source string) error {
		return updateExclusions(cmd, a, source, func(set exclusion.Set) {
			for _, name := range args[1:] {
				set[name] = struct{}{}
			}
		})
	})
}

func runExclusionsRemove(cmd *cobra.Command, args []string) error {
	return withSource(cmd, args[0], func(a *app, source string) error {
		return updateExclusions(cmd, a, source, func(set exclusion.Set) {
			for _, name := range args[1:] {
				delete(set, name)
			}
		})
	})
}

func runExclusionsClear(cmd *cobra.Command, args []string) error {
	return withSource(cmd, args[0], func(a *app, source string) error {
		if err := a.backend.ClearExclusions(cmd.Context(), source); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]interface{}{"source_file": source, "exclusions": []string{}})
		}
		PrintSuccess(fmt.Sprintf("Exclusions cleared for %s", source))
		return nil
	})
}

// updateExclusions is a read-modify-write of the saved set
func updateExclusions(cmd *cobra.Command, a *app, source string, edit func(exclusion.Set)) error {
	current, err := a.backend.Exclusions(cmd.Context(), source)
	if err != nil {
		return err
	}
	set := exclusion.NewSet(current...)
	edit(set)

	names := set.Sorted()
	if err := a.backend.SaveExclusions(cmd.Context(), source, names); err != nil {
		return err
	}
	return showExclusions(source, names)
}

func showExclusions(source string, names []string) error {
	if names == nil {
		names = []string{}
	}
	if jsonOutput {
		return printJSON(map[string]interface{}{"source_file": source, "exclusions": names})
	}
	report.Exclusions(stdout, source, names)
	return nil
}
