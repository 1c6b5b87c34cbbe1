package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

type LogStats struct {
	TotalErrors         int
	PushesAccepted      int
	SettledPayments     int
	FailedPayments      int
	DuplicateCallbacks  int
	DroppedCallbacks    int
	SettlementFailures  int
	WithdrawalsApproved int
	WithdrawalsRejected int
	InsufficientFunds   int
	MerchantActivities  map[string]int
	ErrorPatterns       map[string]int
}

func main() {
	today := time.Now().Format("2006-01-02")
	logDir := "./logs"

	stats := &LogStats{
		MerchantActivities: make(map[string]int),
		ErrorPatterns:      make(map[string]int),
	}

	analyzeErrorLogs(filepath.Join(logDir, fmt.Sprintf("error-%s.log", today)), stats)
	analyzeInfoLogs(filepath.Join(logDir, fmt.Sprintf("info-%s.log", today)), stats)

	printReport(stats)
}

func analyzeErrorLogs(logFile string, stats *LogStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		stats.TotalErrors++

		if strings.Contains(line, "Failed to settle transaction") {
			stats.SettlementFailures++
		}
		if strings.Contains(line, "STK push failed") {
			extractMerchantActivity(line, stats)
		}

		extractErrorPattern(line, stats)
	}
}

func analyzeInfoLogs(logFile string, stats *LogStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.Contains(line, "STK push accepted") {
			stats.PushesAccepted++
			extractMerchantActivity(line, stats)
		}
		if strings.Contains(line, "Settled transaction") {
			stats.SettledPayments++
		}
		if strings.Contains(line, "as FAILED") {
			stats.FailedPayments++
		}
		if strings.Contains(line, "Duplicate callback") {
			stats.DuplicateCallbacks++
		}
		if strings.Contains(line, "dropping callback") {
			stats.DroppedCallbacks++
		}
		if strings.Contains(line, "Approved withdrawal") {
			stats.WithdrawalsApproved++
		}
		if strings.Contains(line, "Rejected withdrawal") {
			stats.WithdrawalsRejected++
		}
		if strings.Contains(line, "Insufficient funds for withdrawal") {
			stats.InsufficientFunds++
			extractMerchantActivity(line, stats)
		}
	}
}

func extractMerchantActivity(line string, stats *LogStats) {
	// Extract the user ID from log lines of the form "user ID: 42"
	userRegex := regexp.MustCompile(`user ID: (\d+)`)
	if match := userRegex.FindStringSubmatch(line); match != nil {
		stats.MerchantActivities[match[1]]++
	}
}

func extractErrorPattern(line string, stats *LogStats) {
	// Extract the main error message
	parts := strings.Split(line, ":")
	if len(parts) > 1 {
		errorMsg := strings.TrimSpace(parts[1])
		stats.ErrorPatterns[errorMsg]++
	}
}

func printReport(stats *LogStats) {
	fmt.Println("\n=== Log Analysis Report ===")
	fmt.Println("Generated:", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Println("\n1. Payment Statistics:")
	fmt.Printf("   STK Pushes Accepted: %d\n", stats.PushesAccepted)
	fmt.Printf("   Payments Settled: %d\n", stats.SettledPayments)
	fmt.Printf("   Payments Failed: %d\n", stats.FailedPayments)
	fmt.Printf("   Duplicate Callbacks: %d\n", stats.DuplicateCallbacks)
	fmt.Printf("   Dropped Callbacks: %d\n", stats.DroppedCallbacks)
	fmt.Printf("   Settlement Failures: %d\n", stats.SettlementFailures)

	fmt.Println("\n2. Withdrawal Statistics:")
	fmt.Printf("   Approved: %d\n", stats.WithdrawalsApproved)
	fmt.Printf("   Rejected: %d\n", stats.WithdrawalsRejected)
	fmt.Printf("   Insufficient Funds: %d\n", stats.InsufficientFunds)

	fmt.Println("\n3. Error Statistics:")
	fmt.Printf("   Total Errors: %d\n", stats.TotalErrors)

	fmt.Println("\n4. Most Active Merchants:")
	printTopMerchants(stats.MerchantActivities, 5)

	fmt.Println("\n5. Most Common Errors:")
	printTopErrors(stats.ErrorPatterns, 5)
}

func printTopMerchants(merchants map[string]int, limit int) {
	type merchantActivity struct {
		userID string
		count  int
	}

	var activities []merchantActivity
	for userID, count := range merchants {
		activities = append(activities, merchantActivity{userID, count})
	}

	sort.Slice(activities, func(i, j int) bool {
		return activities[i].count > activities[j].count
	})

	for i, activity := range activities {
		if i >= limit {
			break
		}
		fmt.Printf("   user %s: %d activities\n", activity.userID, activity.count)
	}
}

func printTopErrors(errors map[string]int, limit int) {
	type errorCount struct {
		error string
		count int
	}

	var errorList []errorCount
	for err, count := range errors {
		errorList = append(errorList, errorCount{err, count})
	}

	sort.Slice(errorList, func(i, j int) bool {
		return errorList[i].count > errorList[j].count
	})

	for i, err := range errorList {
		if i >= limit {
			break
		}
		fmt.Printf("   %s: %d occurrences\n", err.error, err.count)
	}
}
