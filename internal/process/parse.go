package process

import (
	"bufio"
	"sort"
	"strconv"
	"strings"
)

func portNumber(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return 0, false
	}
	return n, true
}

// parsePIDList parses whitespace-separated PIDs (lsof -t output), dropping
// duplicates and garbage.
func parsePIDList(out string) []int {
	seen := make(map[int]bool)
	var pids []int
	for _, field := range strings.Fields(out) {
		pid, err := strconv.Atoi(field)
		if err != nil || pid <= 0 || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// parseProcessTable parses "PID<space or tab>COMMAND LINE" rows, as printed by
// ps -o pid=,command= and by the Windows CIM query.
func parseProcessTable(out string) []processInfo {
	var procs []processInfo
	scanner := bufio.NewScanner(strings.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pidField, rest, _ := strings.Cut(strings.Replace(line, "\t", " ", 1), " ")
		pid, err := strconv.Atoi(pidField)
		if err != nil || pid <= 0 {
			continue
		}
		args := strings.Fields(rest)
		if len(args) == 0 {
			continue
		}
		procs = append(procs, processInfo{PID: pid, Args: args})
	}
	return procs
}

// parseNetstatListeners returns the PIDs of TCP sockets in LISTENING state on
// port from `netstat -ano` output.
func parseNetstatListeners(out string, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	var pids []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Proto  Local Address  Foreign Address  State  PID
		if len(fields) != 5 || !strings.HasPrefix(strings.ToUpper(fields[0]), "TCP") {
			continue
		}
		if fields[3] != "LISTENING" || !strings.HasSuffix(fields[1], suffix) {
			continue
		}
		pids = append(pids, fields[4])
	}
	return parsePIDList(strings.Join(pids, " "))
}

// splitCmdline splits a NUL-separated /proc/<pid>/cmdline.
func splitCmdline(raw []byte) []string {
	s := strings.TrimRight(string(raw), "\x00")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x00")
}
