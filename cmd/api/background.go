package main

// background runs fn on its own goroutine, recovering panics so a failed
// side effect (mail, upload) never takes the server down with it.
func (app *application) background(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				app.logger.Errorw("panic in background task", "error", r)
			}
		}()
		fn()
	}()
}
