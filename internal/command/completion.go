// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/scaladm/scaladm/internal/meta"
)

const bashCompletionScript = `# bash completion for scaladm
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_scaladm()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "aws aws-cleanup aws-groups aws-purge aws-update-all cftemplate cftemplate-update-all gh completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
  local common="--color -c --output -o --padding --titles -t"
  local awsopts="--group --profile -p --region -r"
  local tmplopts="--app-ami --bucket --no-test --profile -p --region -r --upload"

    case "$cmd" in
    aws|aws-purge|aws-update-all)
      local opts="$common $awsopts"
            ;;
        aws-cleanup)
      local opts="$common --age --dry-run --profile -p --region -r"
            ;;
        aws-groups)
      local opts="$common --profile -p --region -r"
            ;;
        cftemplate)
      local opts="$common $tmplopts --memcached --multi --puma tsung"
            ;;
        cftemplate-update-all)
      local opts="$common $tmplopts"
            ;;
        gh)
      local opts="$common --org"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

  if [[ "$cur" == -* ]]; then
    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
  fi

  return 0
}

complete -F _scaladm scaladm
`

const zshCompletionScript = `#compdef scaladm

_scaladm() {
  local -a cmds
  cmds=(
    'aws:provision or update team AWS accounts'
    'aws-cleanup:delete stacks older than the cutoff'
    'aws-groups:list team security groups'
    'aws-purge:remove team AWS accounts and settings'
    'aws-update-all:re-apply the configuration of every team'
    'cftemplate:generate a stack template'
    'cftemplate-update-all:regenerate every stack template combination'
    'gh:scaffold the GitHub team and repository'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '--padding[table column spacing]:padding'
  '(-t --titles)'{-t,--titles}'[show titles]'
  )

  local -a awscommon
  awscommon=(
  '--group[IAM group]:group'
  '(-p --profile)'{-p,--profile}'[AWS profile]:profile'
  '(-r --region)'{-r,--region}'[AWS region]:region'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'scaladm commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    aws|aws-purge|aws-update-all)
      _arguments -C $common $awscommon '*:team:'
      ;;
    aws-cleanup)
      _arguments -C \
        $common \
        '--age[stack age cutoff in hours]:hours' \
        '--dry-run[list candidates without deleting]' \
        '(-p --profile)'{-p,--profile}'[AWS profile]:profile' \
        '(-r --region)'{-r,--region}'[AWS region]:region'
      ;;
    aws-groups)
      _arguments -C \
        $common \
        '(-p --profile)'{-p,--profile}'[AWS profile]:profile' \
        '(-r --region)'{-r,--region}'[AWS region]:region'
      ;;
    cftemplate)
      _arguments -C \
        $common \
        '--app-ami[app server AMI]:ami' \
        '--bucket[upload bucket]:bucket' \
        '--memcached[dedicated memcached instance]' \
        '--multi[load balanced topology]' \
        '--no-test[skip template validation]' \
        '--puma[serve with puma]' \
        '--upload[upload rendered template]' \
        '(-p --profile)'{-p,--profile}'[AWS profile]:profile' \
        '(-r --region)'{-r,--region}'[AWS region]:region' \
        '1: :((tsung))'
      ;;
    cftemplate-update-all)
      _arguments -C \
        $common \
        '--app-ami[app server AMI]:ami' \
        '--bucket[upload bucket]:bucket' \
        '--no-test[skip template validation]' \
        '--upload[upload rendered templates]' \
        '(-p --profile)'{-p,--profile}'[AWS profile]:profile' \
        '(-r --region)'{-r,--region}'[AWS region]:region'
      ;;
    gh)
      _arguments -C $common '--org[GitHub organization]:org' '*:user:'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys
# is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _scaladm scaladm
`

func completionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(os.Stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(os.Stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			fmt.Fprint(os.Stdout, zshCompletionScript)
		case strings.HasSuffix(sh, "bash"):
			fmt.Fprint(os.Stdout, bashCompletionScript)
		default:
			fmt.Fprintln(os.Stderr, "usage: scaladm completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func completionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "scaladm completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: completionCommandAction,
	}
}
