package aggregates

import "testing"

func TestContractsOwnDisjointTables(t *testing.T) {
	seen := map[string]string{}
	for _, c := range []Contract{LedgerAggregateContract, TeamAggregateContract} {
		if len(c.Tables) == 0 {
			t.Fatalf("%s owns no tables", c.Name)
		}
		for _, table := range c.Tables {
			if other, ok := seen[table]; ok {
				t.Fatalf("table %s owned by both %s and %s", table, other, c.Name)
			}
			seen[table] = c.Name
		}
	}
	if !LedgerAggregateContract.Owns("user_account") || LedgerAggregateContract.Owns("team") {
		t.Fatalf("ledger ownership wrong: %v", LedgerAggregateContract.Tables)
	}
}

func TestContractOp(t *testing.T) {
	if got := TeamAggregateContract.Op(" Grade "); got != "Hackathon.Team.Grade" {
		t.Fatalf("Op = %q", got)
	}
}
