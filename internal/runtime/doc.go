// Package runtime implements the dialog engine.
//
// A conversation is a stack of frames. The top frame waits for a message, a
// yes/no answer or a choice; every frame beneath it is suspended until the
// frame above completes and hands back a Result. Frames name their
// continuation by HandlerID, so a stack survives serialization and resumes
// in another process.
//
// The root dialog routes intents. The recommendation dialog narrows the
// catalog down to a beer. The order dialog fills the beer, chaser and side
// dish slots.
package runtime
