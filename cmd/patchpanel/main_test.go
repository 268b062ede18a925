/*
 * Patch Panel - A software patch panel for OpenFlow switches
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 *  Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package main

import (
	"testing"

	"github.com/spf13/viper"
)

func TestValidateConfig(t *testing.T) {
	valid := map[string]interface{}{
		"default.port":              9292,
		"log.driver":                "syslog",
		"log.level":                 "debug",
		"discovery.interval":        "1s",
		"discovery.link_expiration": "0s",
		"discovery.host_cache_size": 16,
		"metrics.enable":            true,
		"metrics.path":              "/metrics",
	}

	samples := []struct {
		Key     string
		Value   interface{}
		IsValid bool
	}{
		{"", nil, true},
		{"default.port", 0, false},
		{"default.port", 70000, false},
		{"rest.tls", true, false},
		{"log.driver", "file", false},
		{"log.level", "", false},
		{"discovery.interval", "0s", false},
		{"discovery.link_expiration", "-1s", false},
		{"discovery.host_cache_size", 0, false},
		{"metrics.path", "", false},
	}

	for _, v := range samples {
		viper.Reset()
		for key, value := range valid {
			viper.Set(key, value)
		}
		if v.Key != "" {
			viper.Set(v.Key, v.Value)
		}

		err := validateConfig()
		if v.IsValid && err != nil {
			t.Fatalf("unexpected error: key=%v, err=%v", v.Key, err)
		}
		if !v.IsValid && err == nil {
			t.Fatalf("expected error for %v=%v, but no error returns", v.Key, v.Value)
		}
	}
	viper.Reset()
}
