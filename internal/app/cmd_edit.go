package app

import (
	"errors"
	"flag"
	"fmt"
	"slices"
	"strconv"

	"github.com/kinogutschein/internal/models"
	"github.com/kinogutschein/internal/service"
)

func runEditCommand(s *session, args []string) error {
	return dispatch(s, "edit", args, map[string]commandFunc{
		"new":           editNew,
		"start":         editStart,
		"mark-redeemed": editMarkRedeemed,
		"set":           editSet,
		"show":          editShow,
		"redemption":    editRedemption,
		"submit":        editSubmit,
		"cancel":        editCancel,
	})
}

// loadEditor 恢复上一次调用留下的草稿
func (s *session) loadEditor() (*service.VoucherEditor, error) {
	state, err := s.container.EditorStateStore.Load(s.ctx)
	if err != nil {
		return nil, err
	}
	editor := service.NewVoucherEditor(s.container.VoucherService)
	editor.Restore(state)
	return editor, nil
}

func (s *session) saveEditor(editor *service.VoucherEditor) error {
	return s.container.EditorStateStore.Save(s.ctx, editor.State())
}

// withDraft 在打开的草稿上执行操作并保存状态
func (s *session) withDraft(fn func(draft *service.DraftSession) error) error {
	editor, err := s.loadEditor()
	if err != nil {
		return err
	}
	draft, err := editor.Current()
	if err != nil {
		return err
	}
	if err := fn(draft); err != nil {
		return err
	}
	return s.saveEditor(editor)
}

// openDraft 开启新草稿，替换已有草稿
func (s *session) openDraft(start func(editor *service.VoucherEditor) (*service.DraftSession, error)) error {
	editor, err := s.loadEditor()
	if err != nil {
		return err
	}
	replaced := editor.Mode() == service.EditorModeEditing
	draft, err := start(editor)
	if err != nil {
		return err
	}
	if err := s.saveEditor(editor); err != nil {
		return err
	}
	if replaced {
		fmt.Fprintln(s.out, "Vorheriger Entwurf wurde verworfen.")
	}
	s.printDraft(draft)
	return nil
}

func editNew(s *session, args []string) error {
	if _, err := parseArgs(s.newFlagSet("edit new"), args); err != nil {
		return err
	}
	return s.openDraft(func(editor *service.VoucherEditor) (*service.DraftSession, error) {
		return editor.StartNew(), nil
	})
}

func editStart(s *session, args []string) error {
	positional, err := parseArgs(s.newFlagSet("edit start"), args)
	if err != nil {
		return err
	}
	id, err := parseVoucherID("edit start", positional)
	if err != nil {
		return err
	}
	return s.openDraft(func(editor *service.VoucherEditor) (*service.DraftSession, error) {
		return editor.StartEdit(id)
	})
}

func editMarkRedeemed(s *session, args []string) error {
	positional, err := parseArgs(s.newFlagSet("edit mark-redeemed"), args)
	if err != nil {
		return err
	}
	id, err := parseVoucherID("edit mark-redeemed", positional)
	if err != nil {
		return err
	}
	if err := s.openDraft(func(editor *service.VoucherEditor) (*service.DraftSession, error) {
		return editor.StartMarkRedeemed(id)
	}); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Mit „kinogutschein edit submit“ speichern.")
	return nil
}

func editSet(s *session, args []string) error {
	fs := s.newFlagSet("edit set")
	name := fs.String("name", "", "Name")
	price := fs.String("price", "", "Kaufpreis")
	expires := fs.String("expires", "", "Ablaufdatum JJJJ-MM-TT")
	status := fs.String("status", "", "Status (valid, partially_redeemed, fully_redeemed)")
	redeemedAt := fs.String("redeemed-at", "", "Eingelöst am JJJJ-MM-TT (leer = entfernen)")
	film := fs.String("film", "", "Film")
	location := fs.String("location", "", "Kino")
	order := fs.String("order", "", "Bestellnummer")
	terms := fs.String("terms", "", "Bedingungen")
	limit := fs.Int("limit", 0, "Maximale Nutzungen")
	single := fs.Bool("single", false, "Nur für 1 Person")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	set := visited(fs)
	if len(set) == 0 {
		return usageErrorf("edit set: mindestens eine Option angeben")
	}

	var patch service.VoucherPatch
	pick := func(flagName string, value *string) *string {
		if set[flagName] {
			return value
		}
		return nil
	}
	patch.Name = pick("name", name)
	patch.PurchasePrice = pick("price", price)
	patch.ExpirationDate = pick("expires", expires)
	patch.Status = pick("status", status)
	patch.RedeemedAt = pick("redeemed-at", redeemedAt)
	patch.Film = pick("film", film)
	patch.Location = pick("location", location)
	patch.OrderNumber = pick("order", order)
	patch.TermsText = pick("terms", terms)
	if set["limit"] {
		patch.UsageLimit = limit
	}
	if set["single"] {
		patch.SinglePersonOnly = single
	}

	return s.withDraft(func(draft *service.DraftSession) error {
		if err := draft.Apply(patch); err != nil {
			return err
		}
		s.printDraft(draft)
		return nil
	})
}

func editShow(s *session, args []string) error {
	if _, err := parseArgs(s.newFlagSet("edit show"), args); err != nil {
		return err
	}
	editor, err := s.loadEditor()
	if err != nil {
		return err
	}
	draft, err := editor.Current()
	if errors.Is(err, service.ErrNoOpenDraft) {
		fmt.Fprintln(s.out, "Kein offener Entwurf.")
		return nil
	}
	if err != nil {
		return err
	}
	s.printDraft(draft)
	return nil
}

func editRedemption(s *session, args []string) error {
	return dispatch(s, "edit redemption", args, map[string]commandFunc{
		"add":    redemptionAdd,
		"edit":   redemptionEdit,
		"remove": redemptionRemove,
	})
}

type redemptionFlags struct {
	input      service.RedemptionInput
	locationID string
}

func bindRedemptionFlags(fs *flag.FlagSet, defaultPersons int) *redemptionFlags {
	f := &redemptionFlags{}
	fs.StringVar(&f.input.Date, "date", "", "Datum JJJJ-MM-TT")
	fs.StringVar(&f.input.Time, "time", "", "Uhrzeit HH:MM")
	fs.StringVar(&f.input.Film, "film", "", "Filmtitel")
	fs.StringVar(&f.input.Location, "location", "", "Kino (Freitext)")
	fs.StringVar(&f.locationID, "location-id", "", "Kino aus der Kinoliste (ID)")
	fs.IntVar(&f.input.AttendeeCount, "persons", defaultPersons, "Anzahl Personen")
	fs.StringVar(&f.input.VoucherRefID, "ref", "", "Gutscheinnummer(n), kommagetrennt")
	return f
}

// resolve 将 --location-id 解析为影院名称
func (f *redemptionFlags) resolve(s *session) (service.RedemptionInput, error) {
	input := f.input
	input.Location = service.ResolveLocationName(input.Location)
	if f.locationID == "" {
		return input, nil
	}
	picker, err := s.container.LocationService.Mount(s.ctx)
	if err != nil {
		return input, err
	}
	locations := picker.Locations()
	idx := slices.IndexFunc(locations, func(item models.Location) bool { return item.ID == f.locationID })
	if idx < 0 {
		return input, service.ErrLocationNotFound
	}
	input.Location = picker.Select(locations[idx])
	return input, nil
}

func redemptionAdd(s *session, args []string) error {
	fs := s.newFlagSet("edit redemption add")
	flags := bindRedemptionFlags(fs, 1)
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	input, err := flags.resolve(s)
	if err != nil {
		return err
	}
	return s.withDraft(func(draft *service.DraftSession) error {
		if err := draft.AddRedemption(input); err != nil {
			return err
		}
		s.printDraft(draft)
		return nil
	})
}

func redemptionEdit(s *session, args []string) error {
	fs := s.newFlagSet("edit redemption edit")
	flags := bindRedemptionFlags(fs, 0)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	index, err := parseRedemptionNumber("edit redemption edit", positional)
	if err != nil {
		return err
	}
	input, err := flags.resolve(s)
	if err != nil {
		return err
	}
	return s.withDraft(func(draft *service.DraftSession) error {
		if err := draft.EditRedemption(index, input); err != nil {
			return err
		}
		s.printDraft(draft)
		return nil
	})
}

func redemptionRemove(s *session, args []string) error {
	fs := s.newFlagSet("edit redemption remove")
	yes := fs.Bool("yes", false, "Ohne Rückfrage entfernen")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	index, err := parseRedemptionNumber("edit redemption remove", positional)
	if err != nil {
		return err
	}
	return s.withDraft(func(draft *service.DraftSession) error {
		confirmation, err := draft.RequestRemoveRedemption(index)
		if err != nil {
			return err
		}
		item := draft.Draft().Redemptions[index]
		prompt := fmt.Sprintf("Einlösung „%s“ vom %s entfernen?", item.Film, item.Date.String())
		if !*yes && !s.confirm(prompt) {
			s.container.VoucherService.CancelConfirmation(confirmation.Token)
			fmt.Fprintln(s.out, "Abgebrochen.")
			return nil
		}
		if err := draft.ConfirmRemoveRedemption(confirmation.Token); err != nil {
			return err
		}
		s.printDraft(draft)
		return nil
	})
}

func editSubmit(s *session, args []string) error {
	if _, err := parseArgs(s.newFlagSet("edit submit"), args); err != nil {
		return err
	}
	editor, err := s.loadEditor()
	if err != nil {
		return err
	}
	draft, err := editor.Current()
	if err != nil {
		return err
	}
	voucher, err := draft.Submit()
	if err != nil {
		return err
	}
	if err := s.saveEditor(editor); err != nil {
		return err
	}
	if voucher == nil {
		fmt.Fprintln(s.out, "Der Gutschein existiert nicht mehr, Änderungen wurden verworfen.")
		return nil
	}
	fmt.Fprintf(s.out, "Gutschein „%s“ gespeichert (ID %d).\n", voucher.Name, voucher.ID)
	return nil
}

func editCancel(s *session, args []string) error {
	if _, err := parseArgs(s.newFlagSet("edit cancel"), args); err != nil {
		return err
	}
	editor, err := s.loadEditor()
	if err != nil {
		return err
	}
	draft, err := editor.Current()
	if err != nil {
		return err
	}
	if err := draft.Cancel(); err != nil {
		return err
	}
	if err := s.saveEditor(editor); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Entwurf verworfen.")
	return nil
}

func (s *session) printDraft(draft *service.DraftSession) {
	current := draft.Draft()
	title := "Neuer Gutschein"
	if id, ok := draft.TargetID(); ok {
		title = fmt.Sprintf("Gutschein %d bearbeiten", id)
	}
	fmt.Fprintf(s.out, "%s (Entwurf)\n", s.bold(title))
	fmt.Fprintf(s.out, "  Name:         %s\n", current.Name)
	fmt.Fprintf(s.out, "  Preis:        %s\n", euro(models.ParseMoneyLenient(current.PurchasePrice)))
	fmt.Fprintf(s.out, "  Ablaufdatum:  %s\n", current.ExpirationDate.String())
	fmt.Fprintf(s.out, "  Status:       %s\n", labelOf(storedStatusLabels, current.Status))
	fmt.Fprintf(s.out, "  Nutzungen:    %d/%d\n", current.UsageCount, current.UsageLimit)
	if current.RedeemedAt != nil {
		fmt.Fprintf(s.out, "  Eingelöst am: %s\n", current.RedeemedAt.String())
	}
	s.printRedemptions(current.Redemptions)
}

func parseRedemptionNumber(name string, positional []string) (int, error) {
	if len(positional) != 1 {
		return 0, usageErrorf("%s: genau eine Einlösungsnummer erwartet", name)
	}
	number, err := strconv.Atoi(positional[0])
	if err != nil || number < 1 {
		return 0, usageErrorf("%s: ungültige Einlösungsnummer %q", name, positional[0])
	}
	return number - 1, nil
}
