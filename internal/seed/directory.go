package seed

import (
	"context"
	"fmt"
	"time"

	"parishcore/internal/store"
	"parishcore/internal/utils"
	"parishcore/pkg/types"
)

// SeedDirectory inserts a small demo directory: a few members in various
// membership states, two newcomers, and the priests list. Intended for
// local development only.
func SeedDirectory(
	ctx context.Context,
	members *store.MemberRepository,
	newcomers *store.NewcomerRepository,
	priests *store.PriestRepository,
) error {
	demoPriests := []types.Priest{
		{Name: "Fr. Bishoy", Parish: utils.StringPtr("St. Mary")},
		{Name: "Fr. Athanasius", Parish: utils.StringPtr("St. Mark")},
	}

	for i := range demoPriests {
		if err := priests.CreatePriest(ctx, &demoPriests[i]); err != nil {
			return fmt.Errorf("seed priest %q: %w", demoPriests[i].Name, err)
		}
	}

	demoMembers := []types.Member{
		{
			GivenName:            "Mina",
			FamilyName:           "Gerges",
			Email:                utils.StringPtr("mina.gerges@example.org"),
			Status:               types.MembershipActive,
			FatherOfRepentanceID: &demoPriests[0].ID,
		},
		{
			GivenName:  "Marina",
			FamilyName: "Habib",
			Email:      utils.StringPtr("marina.habib@example.org"),
			Status:     types.MembershipActive,
		},
		{
			GivenName:  "Youssef",
			FamilyName: "Farag",
			Status:     types.MembershipInactive,
		},
	}

	for i := range demoMembers {
		if err := members.CreateMember(ctx, &demoMembers[i]); err != nil {
			return fmt.Errorf("seed member %s: %w", demoMembers[i].FullName(), err)
		}
	}

	demoNewcomers := []types.Newcomer{
		{
			GivenName:  "Kyrillos",
			FamilyName: "Saleh",
			ArrivedAt:  time.Now().AddDate(0, -2, 0),
		},
		{
			GivenName:  "Demiana",
			FamilyName: "Nashed",
			ArrivedAt:  time.Now().AddDate(0, -1, 0),
		},
	}

	for i := range demoNewcomers {
		if err := newcomers.CreateNewcomer(ctx, &demoNewcomers[i]); err != nil {
			return fmt.Errorf("seed newcomer %s: %w", demoNewcomers[i].GivenName, err)
		}
	}

	return nil
}
