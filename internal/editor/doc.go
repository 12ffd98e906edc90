// Package editor composes selection tracking, geometry, typography and
// persistence into one editing Session.
//
// A Session has a single owner goroutine: the terminal editor's update
// loop, a bridge connection, or a CLI command. Load, Save and Reset run
// their store call in the background and deliver an Outcome on Pending;
// the owner passes it to Resolve. Await does both for command-line use:
//
//	s, err := editor.New(editor.Config{ComponentID: "hero", Store: client})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.Load(); err != nil {
//	    return err
//	}
//	if err := s.Await(ctx); err != nil {
//	    return err
//	}
//
//	refs, _ := s.Select("h1")
//	s.OnConfirm(refs[0])
//	if err := s.SetExclusive(typography.FontSize, "text-4xl"); err != nil {
//	    return err
//	}
//	if err := s.Save(); err != nil {
//	    return err
//	}
//	return s.Await(ctx)
//
// Edits are rejected with a Busy error while a load or reset is in flight,
// since its outcome replaces the document.
package editor
