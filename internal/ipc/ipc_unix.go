package ipc

import (
	"strconv"

	"golang.org/x/sys/unix"
)

func uidString() string { return strconv.Itoa(unix.Getuid()) }
