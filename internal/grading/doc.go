// Package grading reads answer bubbles on a rectified sheet and scores them.
//
// The work happens in three layers, each usable on its own:
//
//   - FillScore measures how dark one bubble is, from 0 (paper) to 1 (ink)
//   - ResolveRow turns one question's fills into a Selection: an option
//     label, Blank or Ambiguous
//   - Engine runs both over a whole Template and, given an AnswerKey,
//     counts matches and decides how each bubble should be annotated
//
// Templates and keys are validated when they are loaded, so grading itself
// only fails on image-dependent problems such as a bubble that falls
// entirely off the sheet.
//
// Question identifiers are ordered naturally: Q2 comes before Q10.
package grading
