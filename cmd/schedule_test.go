// This file is part of backup-janitor
//
// Copyright (C) 2026  VaultOps
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>

package cmd

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaultops/backup-janitor/pkg/janitor"
)

const validSchedule = `
addr: 127.0.0.1:9001
jobs:
  - name: nightly-cleanup
    schedule_pattern: "0 1 * * *"
    job: cleanup
    vault: prod-vault
    expiry_days: 365
  - name: monthly-archive
    schedule_pattern: "0 3 * * *"
    job: archive
    source_vault: prod-vault
    destination_vault: archive-vault
    resource_filter: i-0abc
    cold_storage_after_days: 30
    delete_after_days: 1825
    lookback_years: 5
`

func Test_parseScheduleConfig(t *testing.T) {
	cfg, err := parseScheduleConfig([]byte(validSchedule))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9001", cfg.Addr)
	require.Len(t, cfg.Jobs, 2)
	assert.Equal(t, "nightly-cleanup", cfg.Jobs[0].Name)
	assert.Equal(t, "cleanup", cfg.Jobs[0].Job)
	require.NotNil(t, cfg.Jobs[0].ExpiryDays)
	assert.Equal(t, 365, *cfg.Jobs[0].ExpiryDays)
	assert.Equal(t, "archive", cfg.Jobs[1].Job)
	assert.Equal(t, 1825, cfg.Jobs[1].DeleteAfterDays)
}

func Test_parseScheduleConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no jobs", "addr: 127.0.0.1:9001"},
		{"entry without name", "jobs:\n  - schedule_pattern: \"0 1 * * *\"\n    job: cleanup"},
		{"entry without pattern", "jobs:\n  - name: x\n    job: cleanup"},
		{"duplicate names", "jobs:\n  - name: x\n    schedule_pattern: \"0 1 * * *\"\n  - name: x\n    schedule_pattern: \"0 2 * * *\""},
		{"not yaml", "{{{"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseScheduleConfig([]byte(tc.in))
			require.Error(t, err)
		})
	}
}

// A schedule entry without expiry_days must never become a runnable cleanup
// job: a zero threshold would expire every recovery point in the vault.
func Test_jobFunc_MissingExpiryDays(t *testing.T) {
	cfg, err := parseScheduleConfig([]byte(`
jobs:
  - name: nightly-cleanup
    schedule_pattern: "0 1 * * *"
    job: cleanup
    vault: prod-vault
`))
	require.NoError(t, err)
	require.Nil(t, cfg.Jobs[0].ExpiryDays)

	job, err := jobFunc(janitor.New(nil, zap.NewNop()), cfg.Jobs[0])
	require.ErrorIs(t, err, errExpiryDaysNotSet)
	assert.Nil(t, job)
}

func Test_jobFunc(t *testing.T) {
	runner := janitor.New(nil, zap.NewNop())

	tests := []struct {
		name    string
		entry   scheduleEntry
		wantErr bool
	}{
		{"cleanup", scheduleEntry{Name: "c", Job: "cleanup", Vault: "prod-vault", ExpiryDays: aws.Int(30)}, false},
		{"copy", scheduleEntry{Name: "c", Job: "copy", SourceVault: "a", DestinationVault: "b"}, false},
		{"archive", scheduleEntry{Name: "c", Job: "archive", SourceVault: "a", DestinationVault: "b"}, false},
		{"unknown kind", scheduleEntry{Name: "c", Job: "prune"}, true},
		{"cleanup without vault", scheduleEntry{Name: "c", Job: "cleanup", ExpiryDays: aws.Int(30)}, true},
		{"cleanup without expiry days", scheduleEntry{Name: "c", Job: "cleanup", Vault: "prod-vault"}, true},
		{"copy without destination", scheduleEntry{Name: "c", Job: "copy", SourceVault: "a"}, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			job, err := jobFunc(runner, tc.entry)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, job)
		})
	}
}
