package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/repository/postgres"
	"mould-rental-backend/internal/service"
	"mould-rental-backend/internal/utils"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

func newReconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [equipment-type-id]",
		Short: "Recompute available counts from active rentals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			ledger := service.NewInventoryLedger(store.EquipmentRepository, a.cfg.Reconcile.Concurrency)

			var reports []domain.ReconcileReport
			if len(args) == 1 {
				r, err := ledger.Reconcile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				reports = append(reports, *r)
			} else if reports, err = ledger.ReconcileAll(cmd.Context()); err != nil {
				return err
			}
			printReports(cmd.OutOrStdout(), reports)
			return nil
		},
	}
}

func printReports(out io.Writer, reports []domain.ReconcileReport) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tQUANTITY\tCOMMITTED\tOLD\tNEW\tDELTA")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%+d\n", r.Name, r.Quantity, r.Committed, r.OldAvailable, r.NewAvailable, r.Delta)
	}
	tw.Flush()
}

func newEquipmentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equipment",
		Short: "Manage equipment types",
	}
	equipmentSvc := func(cmd *cobra.Command) (service.EquipmentService, error) {
		store, err := a.openStore(cmd.Context())
		if err != nil {
			return nil, err
		}
		return service.NewEquipmentService(store.EquipmentRepository), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List equipment types with their availability",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := equipmentSvc(cmd)
				if err != nil {
					return err
				}
				types, err := svc.ListEquipmentTypes(cmd.Context())
				if err != nil {
					return err
				}
				printEquipment(cmd.OutOrStdout(), types...)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add NAME QUANTITY",
			Short: "Create an equipment type",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				svc, err := equipmentSvc(cmd)
				if err != nil {
					return err
				}
				e, err := svc.CreateEquipmentType(cmd.Context(), args[0], quantity)
				if err != nil {
					return err
				}
				printEquipment(cmd.OutOrStdout(), *e)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-quantity ID QUANTITY",
			Short: "Change the total stock of an equipment type",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				svc, err := equipmentSvc(cmd)
				if err != nil {
					return err
				}
				e, err := svc.SetQuantity(cmd.Context(), args[0], quantity)
				if err != nil {
					return err
				}
				printEquipment(cmd.OutOrStdout(), *e)
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the default mould catalogue",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := equipmentSvc(cmd)
				if err != nil {
					return err
				}
				created, err := svc.SeedEquipmentTypes(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d equipment types\n", created)
				return nil
			},
		},
	)
	return cmd
}

func parseQuantity(raw string) (int32, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, domain.NewValidationError("quantity", "must be a whole number")
	}
	return int32(n), nil
}

func printEquipment(out io.Writer, types ...domain.EquipmentType) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUANTITY\tAVAILABLE")
	for _, e := range types {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", e.ID, e.Name, e.Quantity, e.Available)
	}
	tw.Flush()
}

func newChargesCmd(a *app) *cobra.Command {
	var (
		pickupRaw, returnRaw string
		deposit, rate        int64
	)
	cmd := &cobra.Command{
		Use:   "charges",
		Short: "Work out the bill for a pickup and return time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := a.cfg.Location()
			pickup, err := time.ParseInLocation(timeLayout, pickupRaw, loc)
			if err != nil {
				return domain.NewValidationError("pickup", "must look like "+timeLayout)
			}
			ret, err := time.ParseInLocation(timeLayout, returnRaw, loc)
			if err != nil {
				return domain.NewValidationError("return", "must look like "+timeLayout)
			}
			if ret.Before(pickup) {
				return domain.NewValidationError("return", "must not be before pickup")
			}
			if !cmd.Flags().Changed("deposit") {
				deposit = a.cfg.Billing.DefaultDepositCents
			}
			if !cmd.Flags().Changed("rate") {
				rate = a.cfg.Billing.DefaultDailyRateCents
			}

			billing := utils.NewBillingCalculator(loc, a.cfg.Billing.OverdueAfterDays)
			c := billing.Charges(pickup, ret, deposit, rate)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Days used:          %d\n", c.DaysUsed)
			fmt.Fprintf(out, "Total charge:       %s\n", utils.FormatCents(c.TotalChargeCents))
			fmt.Fprintf(out, "Refund:             %s\n", utils.FormatCents(c.RefundCents))
			fmt.Fprintf(out, "Additional payment: %s\n", utils.FormatCents(c.AdditionalPaymentCents))
			return nil
		},
	}
	cmd.Flags().StringVar(&pickupRaw, "pickup", "", "Pickup time ("+timeLayout+")")
	cmd.Flags().StringVar(&returnRaw, "return", "", "Return time ("+timeLayout+")")
	cmd.Flags().Int64Var(&deposit, "deposit", 0, "Deposit in cents (defaults to the configured deposit)")
	cmd.Flags().Int64Var(&rate, "rate", 0, "Daily rate in cents (defaults to the configured rate)")
	_ = cmd.MarkFlagRequired("pickup")
	_ = cmd.MarkFlagRequired("return")
	return cmd
}

func newReceiptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Inspect receipt numbering",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Show the receipt number the next rental would get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			receipts := service.NewReceiptSequencer(store.RentalRepository, a.cfg.Receipt.Prefix, a.cfg.Receipt.MaxAttempts)
			next, err := receipts.Next(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), next)
			return nil
		},
	})
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.openStore(cmd.Context()); err != nil {
				return err
			}
			if err := postgres.Migrate(cmd.Context(), a.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
