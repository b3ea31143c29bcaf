package cli

import (
	"fmt"
	"strings"

	"github.com/aific/finances-backend/internal/application/service"
)

// PrintImportSummary prints the outcome of a statement import.
func PrintImportSummary(file string, result *service.ImportResult, svc *service.DocumentService) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Imported %s into %s", file, result.Account.Name)
	if result.NewAccount {
		fmt.Printf(" (new account %s)", result.Account.ID)
	}
	fmt.Println()
	fmt.Printf("Summary: Read=%d Added=%d Duplicates=%d\n",
		result.Read, result.Added, result.Read-result.Added)

	var total, uncategorized int
	for _, tx := range svc.Transactions() {
		total++
		if svc.CategoryOf(tx) == nil {
			uncategorized++
		}
	}
	fmt.Printf("\nDocument: Transactions=%d Uncategorized=%d\n", total, uncategorized)
}
