package app

import (
	"fmt"
	"strings"
)

func runLocationCommand(s *session, args []string) error {
	return dispatch(s, "location", args, map[string]commandFunc{
		"list":   locationList,
		"add":    locationAdd,
		"remove": locationRemove,
	})
}

func locationList(s *session, args []string) error {
	fs := s.newFlagSet("location list")
	query := fs.String("q", "", "Filter nach Name")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	picker, err := s.container.LocationService.Mount(s.ctx)
	if err != nil {
		return err
	}

	w := s.table()
	writeRow(w, "ID", "NAME", "ADRESSE")
	rows := 0
	for location := range picker.ListMatching(*query) {
		address := ""
		if location.Address != nil {
			address = *location.Address
		}
		writeRow(w, location.ID, location.Name, address)
		rows++
	}
	if rows == 0 {
		fmt.Fprintln(s.out, "Keine Kinos gefunden.")
		return nil
	}
	return w.Flush()
}

func locationAdd(s *session, args []string) error {
	fs := s.newFlagSet("location add")
	address := fs.String("address", "", "Adresse")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	name := strings.Join(positional, " ")
	picker, err := s.container.LocationService.Mount(s.ctx)
	if err != nil {
		return err
	}
	location, err := picker.Add(s.ctx, name, *address)
	if err != nil {
		return err
	}
	if location == nil {
		fmt.Fprintln(s.out, "Kein Name angegeben, nichts hinzugefügt.")
		return nil
	}
	fmt.Fprintf(s.out, "Kino „%s“ (ID %s)\n", location.Name, location.ID)
	return nil
}

func locationRemove(s *session, args []string) error {
	fs := s.newFlagSet("location remove")
	yes := fs.Bool("yes", false, "Ohne Rückfrage entfernen")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usageErrorf("location remove: genau eine Kino-ID erwartet")
	}
	picker, err := s.container.LocationService.Mount(s.ctx)
	if err != nil {
		return err
	}
	confirmation, err := picker.RequestRemove(positional[0])
	if err != nil {
		return err
	}
	if !*yes && !s.confirm(fmt.Sprintf("Kino „%s“ entfernen?", confirmation.Fingerprint)) {
		s.container.Confirmations.Cancel(confirmation.Token)
		fmt.Fprintln(s.out, "Abgebrochen.")
		return nil
	}
	if err := picker.ConfirmRemove(s.ctx, confirmation.Token); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Kino „%s“ entfernt.\n", confirmation.Fingerprint)
	return nil
}
