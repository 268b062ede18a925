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

package log

import (
	"fmt"
	"log/syslog"
	"os"
	"runtime"
	"strings"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

const (
	DriverStderr = "stderr"
	DriverSyslog = "syslog"

	DefaultLevel = logging.INFO
)

type syslogWriter interface {
	Crit(m string) error
	Err(m string) error
	Warning(m string) error
	Notice(m string) error
	Info(m string) error
	Debug(m string) error
}

// Syslog is a go-logging backend that writes the records to the system log daemon.
type Syslog struct {
	writer syslogWriter
}

func NewSyslog(prefix string) (*Syslog, error) {
	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, prefix)
	if err != nil {
		return nil, err
	}

	return &Syslog{writer: w}, nil
}

func (r *Syslog) Log(level logging.Level, calldepth int, record *logging.Record) error {
	line := fmt.Sprintf("%v (TID=%v)", record.Formatted(calldepth+1), getGoRoutineID())
	switch level {
	case logging.CRITICAL:
		return r.writer.Crit(line)
	case logging.ERROR:
		return r.writer.Err(line)
	case logging.WARNING:
		return r.writer.Warning(line)
	case logging.NOTICE:
		return r.writer.Notice(line)
	case logging.INFO:
		return r.writer.Info(line)
	case logging.DEBUG:
		return r.writer.Debug(line)
	default:
		return fmt.Errorf("unexpected log level: %v", level)
	}
}

func getGoRoutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
}

// Init sets the backend of all the loggers to driver with level, and returns
// the leveled backend to change the level later.
func Init(driver, prefix string, level logging.Level) (logging.LeveledBackend, error) {
	var backend logging.Backend
	var format string

	switch strings.ToLower(driver) {
	case DriverStderr:
		backend = logging.NewLogBackend(os.Stderr, "", 0)
		format = `%{color}%{time:15:04:05.000} %{level:.4s} %{shortpkg}.%{shortfunc}:%{color:reset} %{message}`
	case DriverSyslog:
		v, err := NewSyslog(prefix)
		if err != nil {
			return nil, errors.Wrap(err, "opening syslog")
		}
		backend = v
		format = `%{level}: %{shortpkg}.%{shortfunc}: %{message}`
	default:
		return nil, fmt.Errorf("unknown log driver: %v", driver)
	}

	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, logging.MustStringFormatter(format)))
	// Set log level for all modules
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)

	return leveled, nil
}

// ParseLevel returns the log level named level, or DefaultLevel if level is invalid.
func ParseLevel(level string) (logging.Level, error) {
	ret, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return DefaultLevel, errors.Wrapf(err, "invalid log level %q", level)
	}

	return ret, nil
}
